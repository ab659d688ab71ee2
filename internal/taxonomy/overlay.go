package taxonomy

import (
	"os"
	"regexp"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// entryConfig mirrors Entry for YAML decoding; patterns are compiled at load.
type entryConfig struct {
	Abbrevs   []string `yaml:"abbrevs"`
	Keywords  []string `yaml:"keywords"`
	Patterns  []string `yaml:"patterns"`
	SkipWords []string `yaml:"skip_words"`
}

// LoadOverlay reads a YAML chart-of-accounts overlay and merges it onto base.
// Shops whose statements use house terminology extend the built-in taxonomy
// this way: existing keys gain the overlay's terms, unknown keys become new
// canonical keys appended after the base order.
func LoadOverlay(path string, base *Taxonomy) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read overlay %s", path)
	}

	// The YAML has a top-level "taxonomy" key
	var wrapper struct {
		Taxonomy map[string]entryConfig `yaml:"taxonomy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse overlay")
	}

	keys := append([]string(nil), base.keys...)
	entries := make(map[string]Entry, len(base.entries)+len(wrapper.Taxonomy))
	for k, e := range base.entries {
		entries[k] = e
	}

	var newKeys []string
	for key, ec := range wrapper.Taxonomy {
		e, known := entries[key]
		if !known {
			newKeys = append(newKeys, key)
		}
		e.Abbrevs = append(e.Abbrevs, ec.Abbrevs...)
		e.Keywords = append(e.Keywords, ec.Keywords...)
		e.SkipWords = append(e.SkipWords, ec.SkipWords...)
		for _, p := range ec.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, eris.Wrapf(err, "taxonomy: compile pattern for %s", key)
			}
			e.Patterns = append(e.Patterns, re)
		}
		entries[key] = e
	}

	// YAML maps are unordered; sort added keys so match precedence is stable
	// across runs.
	sort.Strings(newKeys)
	keys = append(keys, newKeys...)

	return New(keys, entries), nil
}
