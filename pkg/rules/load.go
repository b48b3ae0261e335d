package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a ruleset from a YAML file. Vocabularies present in the file
// replace the corresponding defaults wholesale; absent ones keep the
// built-in table, so a file can override just the exclusion list.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var override Ruleset
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	rs := Default()
	if len(override.Exclude) > 0 {
		rs.Exclude = override.Exclude
	}
	if len(override.Include) > 0 {
		rs.Include = override.Include
	}
	if len(override.PackCues) > 0 {
		rs.PackCues = override.PackCues
	}
	if len(override.Families) > 0 {
		rs.Families = override.Families
	}
	if len(override.Brands) > 0 {
		rs.Brands = override.Brands
	}
	if len(override.SoldOutPhrases) > 0 {
		rs.SoldOutPhrases = override.SoldOutPhrases
	}
	return rs, nil
}
