package match

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadRules reads a pattern rule table from a YAML file. The YAML sequence
// order is preserved, which is what gives the table its precedence semantics.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "match: read rules %s", path)
	}

	var wrapper struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "match: parse rules")
	}

	for i, r := range wrapper.Rules {
		if len(r.Substrings) == 0 {
			return nil, eris.Errorf("match: rule %d has no substrings", i)
		}
		if r.Category == "" {
			return nil, eris.Errorf("match: rule %d has no category", i)
		}
		if r.Confidence <= 0 || r.Confidence > 1 {
			return nil, eris.Errorf("match: rule %d confidence %v out of range", i, r.Confidence)
		}
	}

	return wrapper.Rules, nil
}
