package rules

import (
	"strings"
	"unicode/utf8"
)

// Decision is the classifier verdict for one product title.
type Decision struct {
	Included bool
	Family   string
	Brand    string
}

// Classify decides whether a title belongs in the report and which family
// and brand it carries. It is pure: same title, same ruleset, same answer.
//
// Order matters: exclusion words veto everything, even when an inclusion
// word is also present. Family and brand are assigned regardless of the
// include verdict so callers can log near-misses.
func (r *Ruleset) Classify(title string) Decision {
	if strings.TrimSpace(title) == "" {
		return Decision{Family: FamilyOther, Brand: "Unknown"}
	}
	low := strings.ToLower(title)

	d := Decision{
		Family: r.familyOf(low),
		Brand:  r.brandOf(title, low),
	}

	if containsAny(low, r.Exclude) {
		return d
	}
	if containsAny(low, r.Include) {
		d.Included = true
		return d
	}
	// Some small-pack listings carry none of the inclusion words; unit/pack
	// cues are the last chance before rejection.
	d.Included = containsAny(low, r.PackCues)
	return d
}

// SoldOut reports whether availability text reads as sold out.
func (r *Ruleset) SoldOut(stockText string) bool {
	return containsAny(strings.ToLower(stockText), r.SoldOutPhrases)
}

func (r *Ruleset) familyOf(low string) string {
	for _, f := range r.Families {
		if containsAny(low, f.Keywords) {
			return f.Name
		}
	}
	return FamilyOther
}

func (r *Ruleset) brandOf(title, low string) string {
	for _, b := range r.Brands {
		if strings.Contains(low, strings.ToLower(b)) {
			return b
		}
	}
	if first := strings.Fields(title); len(first) > 0 && utf8.RuneCountInString(first[0]) >= 3 {
		return first[0]
	}
	return "Unknown"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
