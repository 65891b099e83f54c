package report

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps sector keywords to a colour.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Color    string   `yaml:"color"`
}

// Palette assigns trace colours by case-insensitive keyword match. Rules
// are tried in order and the first match wins.
type Palette struct {
	Rules    []Rule `yaml:"rules"`
	Fallback string `yaml:"fallback"`
}

const fallbackColor = "#7f7f7f"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DefaultPalette is the built-in sector colouring.
func DefaultPalette() Palette {
	return Palette{
		Rules: []Rule{
			{Keywords: []string{"health"}, Color: "#2ca02c"},
			{Keywords: []string{"education"}, Color: "#1f77b4"},
			{Keywords: []string{"growth", "economic", "development"}, Color: "#ff7f0e"},
			{Keywords: []string{"equality", "gender", "equal"}, Color: "#e377c2"},
		},
		Fallback: fallbackColor,
	}
}

// ColorFor returns the colour for sector using the default palette.
func ColorFor(sector string) string {
	return DefaultPalette().ColorFor(sector)
}

// ColorFor returns the colour of the first rule with a keyword contained in
// sector, or the fallback colour.
func (p Palette) ColorFor(sector string) string {
	s := strings.ToLower(sector)
	for _, r := range p.Rules {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
				return r.Color
			}
		}
	}
	if p.Fallback == "" {
		return fallbackColor
	}
	return p.Fallback
}

// LoadPalette reads a YAML rule list such as
//
//	rules:
//	  - keywords: [health]
//	    color: "#2ca02c"
//	fallback: "#7f7f7f"
func LoadPalette(path string) (Palette, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, fmt.Errorf("read palette: %w", err)
	}

	var p Palette
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Palette{}, fmt.Errorf("parse palette %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return Palette{}, fmt.Errorf("palette %s: %w", path, err)
	}
	if p.Fallback == "" {
		p.Fallback = fallbackColor
	}
	return p, nil
}

func (p Palette) validate() error {
	if len(p.Rules) == 0 {
		return fmt.Errorf("no rules")
	}
	for i, r := range p.Rules {
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %d: no keywords", i+1)
		}
		if !hexColor.MatchString(r.Color) {
			return fmt.Errorf("rule %d: invalid color %q", i+1, r.Color)
		}
	}
	if p.Fallback != "" && !hexColor.MatchString(p.Fallback) {
		return fmt.Errorf("invalid fallback color %q", p.Fallback)
	}
	return nil
}
