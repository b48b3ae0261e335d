package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pyrowatch/pyrowatch/pkg/rules"
)

// BaseOrigin resolves relative product links.
const BaseOrigin = "https://www.ekopyro.eu"

// MissingPrice is rendered when a product block carries no price element.
const MissingPrice = "—"

// Block is one raw product block lifted from a search results page, before
// classification.
type Block struct {
	Title string
	Stock string
	Price string
	Href  string
}

// Extract normalizes a raw block into an Item. The second return is false
// when the block has no usable title or the classifier excludes it.
func Extract(rs *rules.Ruleset, b Block, pageURL string) (Item, bool) {
	title := strings.Join(strings.Fields(b.Title), " ")
	if title == "" {
		return Item{}, false
	}

	d := rs.Classify(title)
	if !d.Included {
		return Item{}, false
	}

	stock := strings.Join(strings.Fields(b.Stock), " ")
	if stock == "" {
		stock = UnknownStock
	}

	price := strings.Join(strings.Fields(b.Price), " ")
	if price == "" {
		price = MissingPrice
	}

	link := b.Href
	if link == "" {
		link = pageURL
	} else if !strings.HasPrefix(link, "http") {
		link = BaseOrigin + link
	}

	return Item{
		Title:  title,
		Stock:  stock,
		Link:   link,
		Family: d.Family,
		Brand:  d.Brand,
		Price:  price,
	}, true
}

// ParsePage extracts all included items from one search results page.
// Malformed blocks are skipped individually; a page that parses but
// contains no product blocks yields an empty slice, not an error.
func ParsePage(rs *rules.Ruleset, html, pageURL string) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var items []Item
	doc.Find("div.product-block").Each(func(_ int, s *goquery.Selection) {
		b := Block{
			Title: s.Find("h2.title a").First().Text(),
			Stock: s.Find("div.p-avail a.prod-available").First().Text(),
			Price: extractPrice(s),
		}
		b.Href, _ = s.Find("h2.title a").First().Attr("href")

		if item, ok := Extract(rs, b, pageURL); ok {
			items = append(items, item)
		}
	})
	return items, nil
}

// extractPrice tries the selector variants the shop has used over time.
func extractPrice(s *goquery.Selection) string {
	for _, sel := range []string{".price", ".p-price", "div.price", "span.price"} {
		if el := s.Find(sel).First(); el.Length() > 0 {
			return el.Text()
		}
	}
	return ""
}
