// Package quality flags low-quality pool leads. Classification is pure and
// deterministic; the only I/O is loading an optional rules file at startup.
package quality

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MinPhoneDigits is the shortest normalized phone that is not flagged short.
const MinPhoneDigits = 10

// Rules are the configurable inputs of the classifier.
type Rules struct {
	// TestPatterns are substrings that mark a name or email as test data.
	TestPatterns []string `yaml:"test_patterns"`
	// TestAllowWords are real names that contain a test pattern.
	TestAllowWords []string `yaml:"test_allow_words"`
	// TestDomains are email domains only used for fake records.
	TestDomains []string `yaml:"test_domains"`
	// PlaceholderDomains are the reserved domains used when no real email was collected.
	PlaceholderDomains []string `yaml:"placeholder_domains"`
	// MinPhoneDigits overrides MinPhoneDigits when positive.
	MinPhoneDigits int `yaml:"min_phone_digits"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		TestPatterns:       []string{"test", "demo", "asdf", "fake", "sample"},
		TestAllowWords:     []string{"demond", "testa"},
		TestDomains:        []string{"example.com", "example.org", "test.com", "mailinator.com"},
		PlaceholderDomains: []string{"noemail.invalid", "placeholder.local", "no-email.com"},
		MinPhoneDigits:     MinPhoneDigits,
	}
}

// LoadRules reads a YAML rules file. Lists present in the file replace the
// defaults; omitted keys keep them. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read quality rules: %w", err)
	}

	var file Rules
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Rules{}, fmt.Errorf("parse quality rules: %w", err)
	}

	if file.TestPatterns != nil {
		rules.TestPatterns = file.TestPatterns
	}
	if file.TestAllowWords != nil {
		rules.TestAllowWords = file.TestAllowWords
	}
	if file.TestDomains != nil {
		rules.TestDomains = file.TestDomains
	}
	if file.PlaceholderDomains != nil {
		rules.PlaceholderDomains = file.PlaceholderDomains
	}
	if file.MinPhoneDigits > 0 {
		rules.MinPhoneDigits = file.MinPhoneDigits
	}
	return rules.normalized(), nil
}

func (r Rules) normalized() Rules {
	lower := func(values []string) []string {
		out := make([]string, 0, len(values))
		for _, v := range values {
			v = strings.ToLower(strings.TrimSpace(v))
			v = strings.TrimPrefix(v, "@")
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	r.TestPatterns = lower(r.TestPatterns)
	r.TestAllowWords = lower(r.TestAllowWords)
	r.TestDomains = lower(r.TestDomains)
	r.PlaceholderDomains = lower(r.PlaceholderDomains)
	if r.MinPhoneDigits <= 0 {
		r.MinPhoneDigits = MinPhoneDigits
	}
	return r
}
