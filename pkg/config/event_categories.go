package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed event_categories.yaml
var defaultEventCategories []byte

// EventCategories maps a commercial event name to the categories it promotes.
type EventCategories struct {
	Event      string   `yaml:"event"`
	Categories []string `yaml:"categories"`
}

// EventCategoryTable is an ordered list of event mappings; the first entry
// whose name is contained in the event name wins.
type EventCategoryTable []EventCategories

// LoadEventCategories reads the table from path, or returns the built-in
// table when path is empty.
func LoadEventCategories(path string) (EventCategoryTable, error) {
	data := defaultEventCategories
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read event categories: %w", err)
		}
		data = b
	}

	var table EventCategoryTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse event categories: %w", err)
	}
	for i, e := range table {
		if strings.TrimSpace(e.Event) == "" {
			return nil, fmt.Errorf("event categories entry %d has no event name", i)
		}
	}
	return table, nil
}

// Match returns the categories for eventName, or nil when no entry matches.
func (t EventCategoryTable) Match(eventName string) []string {
	name := strings.ToLower(eventName)
	for _, e := range t {
		if strings.Contains(name, strings.ToLower(e.Event)) {
			return e.Categories
		}
	}
	return nil
}
