// Package catalog maps short course codes to the display names the admin
// console knows them by.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Course is one sellable course on the admin console.
type Course struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Catalog resolves course codes case-insensitively while preserving the
// order codes were declared in for user-facing listings.
type Catalog struct {
	byCode map[string]Course
	codes  []string
}

type catalogFile struct {
	Courses []Course `yaml:"courses"`
}

// New builds a catalog from an ordered course list.
func New(courses []Course) (*Catalog, error) {
	if len(courses) == 0 {
		return nil, fmt.Errorf("catalog: no courses defined")
	}
	c := &Catalog{byCode: make(map[string]Course, len(courses))}
	for _, course := range courses {
		code := strings.ToLower(strings.TrimSpace(course.Code))
		if code == "" {
			return nil, fmt.Errorf("catalog: course with empty code")
		}
		if strings.TrimSpace(course.Name) == "" {
			return nil, fmt.Errorf("catalog: course %q has no name", course.Code)
		}
		if _, dup := c.byCode[code]; dup {
			return nil, fmt.Errorf("catalog: duplicate course code %q", code)
		}
		c.byCode[code] = Course{Code: code, Name: strings.TrimSpace(course.Name)}
		c.codes = append(c.codes, code)
	}
	return c, nil
}

// Default returns the built-in catalog used when no courses file is
// configured.
func Default() *Catalog {
	c, err := New([]Course{
		{Code: "fs1", Name: "Full Stack 1"},
		{Code: "fs2", Name: "Full Stack 2"},
		{Code: "fs3", Name: "Full Stack 3"},
		{Code: "fs4", Name: "Full Stack 4"},
		{Code: "fs5", Name: "Full Stack 5"},
		{Code: "meta", Name: "Meta Interview Advance Concepts"},
		{Code: "own", Name: "Ownership"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a YAML courses file and replaces the defaults with it.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	c, err := New(f.Courses)
	if err != nil {
		return nil, fmt.Errorf("%w in %s", err, path)
	}
	return c, nil
}

// Lookup resolves a course code, ignoring case.
func (c *Catalog) Lookup(code string) (Course, bool) {
	course, ok := c.byCode[strings.ToLower(strings.TrimSpace(code))]
	return course, ok
}

// Codes lists the valid codes in declaration order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// CodesLine renders the codes as the comma-separated list replies embed.
func (c *Catalog) CodesLine() string {
	return strings.Join(c.codes, ", ")
}
