// Package rules holds the classification vocabulary as data. The monitor's
// behavior is tuned by swapping rule tables, never by forking the pipeline.
package rules

// FamilyOther is the fallback family for titles no family rule matches.
const FamilyOther = "Other"

// FamilyRule maps a product family to its title keywords. Rules are
// evaluated in slice order; the first match wins.
type FamilyRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Ruleset bundles every vocabulary the pipeline matches titles and
// availability text against. All matching is case-insensitive substring
// matching, not token matching.
type Ruleset struct {
	// Exclude lists substrings that disqualify a title outright. It has
	// absolute priority over Include and PackCues.
	Exclude []string `yaml:"exclude"`

	// Include lists substrings that mark a title as a firecracker.
	Include []string `yaml:"include"`

	// PackCues is the fallback heuristic: unit/pack words that small-pack
	// firecracker listings tend to carry when no Include word is present.
	PackCues []string `yaml:"pack_cues"`

	// Families assigns output groups, first match wins.
	Families []FamilyRule `yaml:"families"`

	// Brands is the known vendor vocabulary, checked in order.
	Brands []string `yaml:"brands"`

	// SoldOutPhrases mark availability text as sold out.
	SoldOutPhrases []string `yaml:"sold_out_phrases"`
}

// Default returns the built-in ruleset for the ekopyro.eu catalog.
func Default() *Ruleset {
	return &Ruleset{
		Exclude: []string{
			"rocket", "rakete", "raketa", "rakešu", "raktete",
			"cake", "battery", "baterija", "bateria", "batteries",
			"multishot", "multi shot",
			"roman candle", "candle", "fountain", "mine",
			"launcher", "tube", "volcano", "spark", "flare", "signal",
			"assortment", "set", "fan", "compound", "shell", "mortar",
			"smoke", "strobe", "torch", "confetti",
		},
		Include: []string{
			"fp3", "p1", "petard", "petarde", "petar",
			"banger", "firecracker", "cracker",
			"m80", "m100", "m150", "m200", "m300", "m500",
			"thunder", "boom", "salute", "petardo", "petardy",
		},
		PackCues: []string{"pcs", "pack", "petarde", "petardes"},
		Families: []FamilyRule{
			{Name: "Dum Bum", Keywords: []string{"dum bum", "dumbum", "dum-bum"}},
			{Name: "Zom Bum", Keywords: []string{"zom bum", "zombum", "zom-bum"}},
			{Name: "Viper", Keywords: []string{"viper"}},
			{Name: "Original", Keywords: []string{"original"}},
			{Name: "Cobra", Keywords: []string{"cobra"}},
		},
		Brands: []string{
			"Dum Bum", "Zom Bum", "Viper", "Original", "Cobra",
			"Funke", "Klasek", "Triplex", "Jorge", "Pyro Moravia",
			"Zeus", "Panta", "Gaoo", "Di Blasio Elio", "Weco",
			"Piromax", "Iskra", "Nico", "Black Cat", "Lesli", "Riakeo",
		},
		SoldOutPhrases: []string{"sold out", "out of stock", "nav pieejams"},
	}
}

// FamilyNames returns the family names in rule order, with FamilyOther
// appended. This is the rendering and sync order for the report.
func (r *Ruleset) FamilyNames() []string {
	names := make([]string, 0, len(r.Families)+1)
	for _, f := range r.Families {
		names = append(names, f.Name)
	}
	return append(names, FamilyOther)
}
