package rating

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Attribute is one line of a student profile.
type Attribute struct {
	Name  string
	Value string
}

// StudentProfile is the payload sent to the scoring service. Attribute order
// is kept as declared so prompts are reproducible.
type StudentProfile struct {
	Attributes []Attribute
}

// DefaultProfile is the built-in stub profile used when no profile file is configured.
func DefaultProfile() StudentProfile {
	return StudentProfile{Attributes: []Attribute{
		{Name: "grades", Value: "A+ in Mathematics, A++ in English"},
		{Name: "hobbies", Value: "VERY GOOD"},
		{Name: "unique_skills", Value: "VEREY GOOD"},
		{Name: "daily_activity", Value: "VERY GOOD"},
		{Name: "prof_remarks", Value: "VERY VERY GOOD STUDENT"},
		{Name: "attendance", Value: "VERY VERY GOOD"},
		{Name: "participation", Value: "VERY VERY GOOD"},
		{Name: "assignments", Value: "VERY VERY GOOD"},
		{Name: "teamwork", Value: "VERY GOOD"},
		{Name: "punctuality", Value: "ALWAYS ON TIME"},
		{Name: "focus", Value: "VERY GOOD"},
		{Name: "communication", Value: "VERY GOOD"},
		{Name: "progress", Value: "VERY GOOD"},
		{Name: "problem_solving", Value: "VERY GOOD"},
		{Name: "behavior", Value: "VERY GOOD"},
	}}
}

// Get returns the value for name.
func (p StudentProfile) Get(name string) (string, bool) {
	for _, attr := range p.Attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

func (p StudentProfile) String() string {
	var b strings.Builder
	for _, attr := range p.Attributes {
		fmt.Fprintf(&b, "%s: %s\n", attr.Name, attr.Value)
	}
	return b.String()
}

// UnmarshalYAML reads a flat mapping and keeps document order.
func (p *StudentProfile) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("student profile: expected mapping, got line %d", node.Line)
	}

	attrs := make([]Attribute, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("student profile: %q must be a scalar (line %d)", key.Value, value.Line)
		}
		attrs = append(attrs, Attribute{Name: key.Value, Value: value.Value})
	}
	p.Attributes = attrs
	return nil
}

// LoadProfile reads a YAML profile. An empty path returns DefaultProfile.
func LoadProfile(path string) (StudentProfile, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultProfile(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return StudentProfile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	var profile StudentProfile
	if err := yaml.NewDecoder(f).Decode(&profile); err != nil {
		return StudentProfile{}, fmt.Errorf("decode profile %s: %w", path, err)
	}
	if len(profile.Attributes) == 0 {
		return StudentProfile{}, errors.New("profile " + path + " has no attributes")
	}
	return profile, nil
}
