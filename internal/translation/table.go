package translation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fjglira/bugzero/internal/domain"
)

// Template placeholders understood by the compiler.
const (
	PlaceholderLocator = "{locator}"
	PlaceholderValue   = "{value}"
	PlaceholderURL     = "{url}"
)

// ClickCommand is the one command allowed to omit a value even when its
// template asks for one.
const ClickCommand = "Click"

// Table maps command names to action templates. Lookups are exact and
// case-sensitive. A Table is never modified after New returns.
type Table struct {
	entries map[string]string
}

// New copies entries into an immutable Table.
func New(entries map[string]string) *Table {
	t := &Table{entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		t.entries[k] = v
	}
	return t
}

// Resolve returns the template registered for command.
func (t *Table) Resolve(command string) (string, error) {
	if t != nil {
		if tmpl, ok := t.entries[command]; ok {
			return tmpl, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrTranslationNotFound, command)
}

// Has reports whether command resolves.
func (t *Table) Has(command string) bool {
	_, err := t.Resolve(command)
	return err == nil
}

// Commands returns the sorted command names.
func (t *Table) Commands() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of commands.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Placeholders describes which parameters a template consumes.
type Placeholders struct {
	Locator bool
	Value   bool
	URL     bool
}

// NeedsValue reports whether the template reads the step's value field.
func (p Placeholders) NeedsValue() bool {
	return p.Value || p.URL
}

// Scan reports the placeholders present in template.
func Scan(template string) Placeholders {
	return Placeholders{
		Locator: strings.Contains(template, PlaceholderLocator),
		Value:   strings.Contains(template, PlaceholderValue),
		URL:     strings.Contains(template, PlaceholderURL),
	}
}
