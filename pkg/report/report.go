// Package report renders the merged catalog into bounded Discord-markdown
// blocks, grouped by family.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pyrowatch/pyrowatch/pkg/catalog"
	"github.com/pyrowatch/pyrowatch/pkg/reconcile"
	"github.com/pyrowatch/pyrowatch/pkg/rules"
)

const (
	// DefaultMaxBlockChars leaves headroom under Discord's 2000-char
	// message limit for the block header and truncation trailer.
	DefaultMaxBlockChars = 1900

	// DefaultMaxBlocks caps how many messages one family may occupy.
	DefaultMaxBlocks = 4
)

// Block is one independently addressable output message. (Family, Part)
// is the stable key the sync engine maps to a stored message ID.
type Block struct {
	Family  string
	Part    int // 1-based
	Content string
}

// FamilyReport carries all blocks of one family, in part order.
type FamilyReport struct {
	Family string
	Blocks []Block
}

// Options bounds the rendered output.
type Options struct {
	MaxBlockChars int
	MaxBlocks     int

	// Now stamps the block headers. Nil omits the timestamp, which keeps
	// golden tests deterministic.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxBlockChars <= 0 {
		o.MaxBlockChars = DefaultMaxBlockChars
	}
	if o.MaxBlocks <= 0 {
		o.MaxBlocks = DefaultMaxBlocks
	}
	return o
}

// Render groups items by family and renders each family into at most
// MaxBlocks blocks. Families with no items are omitted. Family order
// follows the ruleset, with "Other" last.
func Render(rs *rules.Ruleset, items map[string]catalog.Item, opts Options) []FamilyReport {
	opts = opts.withDefaults()

	grouped := make(map[string][]catalog.Item)
	for _, it := range items {
		grouped[it.Family] = append(grouped[it.Family], it)
	}

	var out []FamilyReport
	for _, family := range rs.FamilyNames() {
		members := grouped[family]
		if len(members) == 0 {
			continue
		}
		sortItems(rs, members)

		lines := make([]string, len(members))
		for i, it := range members {
			lines[i] = Line(rs, it)
		}

		chunks, omitted := chunk(lines, opts.MaxBlockChars, opts.MaxBlocks)

		fr := FamilyReport{Family: family}
		for i, body := range chunks {
			if i == len(chunks)-1 && omitted > 0 {
				body += fmt.Sprintf("\n… and %d more items", omitted)
			}
			fr.Blocks = append(fr.Blocks, Block{
				Family:  family,
				Part:    i + 1,
				Content: header(family, i+1, len(chunks), opts.Now) + "\n" + body,
			})
		}
		out = append(out, fr)
	}
	return out
}

// Line renders one item the way the report shows it.
func Line(rs *rules.Ruleset, it catalog.Item) string {
	emoji := "✅"
	switch catalog.State(rs, it.Stock) {
	case catalog.SoldOut:
		emoji = "❌"
	case catalog.Unknown:
		emoji = "❓"
	}
	return fmt.Sprintf("%s **[%s](%s)** — _%s_ — **%s** → `%s`",
		emoji, it.Title, it.Link, it.Brand, it.Price, it.Stock)
}

// RenderChanges formats the change log for terminal output and logs.
func RenderChanges(changes []reconcile.Change) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		switch c.Kind {
		case reconcile.KindNew:
			out = append(out, fmt.Sprintf("NEW        %s (%s)", c.Title, c.Current))
		case reconcile.KindRemoved:
			out = append(out, fmt.Sprintf("REMOVED    %s (was %s)", c.Title, c.Previous))
		default:
			out = append(out, fmt.Sprintf("%-10s %s: %s -> %s", strings.ToUpper(string(c.Kind)), c.Title, c.Previous, c.Current))
		}
	}
	return out
}

// sortItems orders a family: available first, then case-insensitive
// alphabetical. Stable, so equal titles keep their merge order.
func sortItems(rs *rules.Ruleset, members []catalog.Item) {
	sort.SliceStable(members, func(i, j int) bool {
		si := catalog.State(rs, members[i].Stock) == catalog.SoldOut
		sj := catalog.State(rs, members[j].Stock) == catalog.SoldOut
		if si != sj {
			return !si
		}
		return strings.ToLower(members[i].Title) < strings.ToLower(members[j].Title)
	})
}

// chunk packs lines into blocks of at most maxChars, never splitting a
// line. Past maxBlocks, remaining lines are dropped and counted.
func chunk(lines []string, maxChars, maxBlocks int) (chunks []string, omitted int) {
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}

	for i, ln := range lines {
		if cur.Len() > 0 && cur.Len()+1+len(ln) > maxChars {
			flush()
			if len(chunks) == maxBlocks {
				omitted = len(lines) - i
				return chunks, omitted
			}
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(ln)
	}
	flush()
	return chunks, 0
}

func header(family string, part, total int, now func() time.Time) string {
	h := fmt.Sprintf("🧨 **%s — live stock**", family)
	if total > 1 {
		h = fmt.Sprintf("🧨 **%s — live stock (%d/%d)**", family, part, total)
	}
	if now != nil {
		h += fmt.Sprintf("\n_Last update: %s_", now().UTC().Format("2006-01-02 15:04 UTC"))
	}
	return h
}
