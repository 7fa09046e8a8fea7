/*
Package factory provides JSON/YAML to Go bracket table conversion.

PURPOSE:
  Converts table definitions in files or API payloads into validated
  generic.Table values. Bracket limits and rates change every fiscal year;
  keeping them in files means a new year is a new file, not a release.

SCHEMA (YAML shown, JSON uses the same keys):
  id: it-irpef
  name: IRPEF
  jurisdiction: it
  year: 2025
  currency: EUR
  brackets:
    - up_to: 28000
      rate: 0.23
    - up_to: 50000
      rate: 0.35
    - rate: 0.43          # up_to omitted or null: unbounded

  Amounts may be written as numbers or strings ("28000.50"). They are
  parsed straight into decimals, never through float64.

KEY FEATURES:
  - Validates with generic.Table.Validate before returning
  - Defaults currency to EUR when omitted
  - ToFile is the inverse, used by the API to render tables

USAGE:
  table, err := factory.LoadFile("tables/it-irpef-2025.yaml")
  reg.Register(table)

  tables, err := factory.LoadDir("tables/")

SEE ALSO:
  - watch.go: Reloads a directory when files change
  - generic/table.go: Validate
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fiscalkit/bracket-engine/generic"
)

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// TableFile is the serialized form of a table.
type TableFile struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	Jurisdiction string        `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	Year         int           `json:"year,omitempty" yaml:"year,omitempty"`
	Currency     string        `json:"currency,omitempty" yaml:"currency,omitempty"`
	Brackets     []BracketFile `json:"brackets" yaml:"brackets"`
}

// BracketFile is one bracket. A nil UpTo is the unbounded top bracket.
type BracketFile struct {
	UpTo  *Amount `json:"up_to" yaml:"up_to,omitempty"`
	Rate  Amount  `json:"rate" yaml:"rate"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// Amount is a decimal that decodes from YAML and JSON numbers or strings.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number, got %s", node.Line, node.Tag)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", node.Line, node.Value)
	}
	a.Decimal = d
	return nil
}

func (a Amount) MarshalYAML() (any, error) {
	return a.Decimal.String(), nil
}

// =============================================================================
// PARSING
// =============================================================================

// ParseJSON parses and validates a JSON table definition.
func ParseJSON(data []byte) (generic.Table, error) {
	var tf TableFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return generic.Table{}, fmt.Errorf("failed to parse table JSON: %w", err)
	}
	return FromFile(tf)
}

// ParseYAML parses and validates a YAML table definition.
func ParseYAML(data []byte) (generic.Table, error) {
	var tf TableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return generic.Table{}, fmt.Errorf("failed to parse table YAML: %w", err)
	}
	return FromFile(tf)
}

// FromFile converts a TableFile to a validated generic.Table.
func FromFile(tf TableFile) (generic.Table, error) {
	currency := generic.Currency(strings.ToUpper(tf.Currency))
	if currency == "" {
		currency = generic.EUR
	}

	table := generic.Table{
		ID:           generic.TableID(tf.ID),
		Name:         tf.Name,
		Jurisdiction: generic.Jurisdiction(strings.ToLower(tf.Jurisdiction)),
		Year:         tf.Year,
		Currency:     currency,
		Brackets: lo.Map(tf.Brackets, func(b BracketFile, _ int) generic.Bracket {
			bracket := generic.Bracket{Rate: b.Rate.Decimal, Label: b.Label}
			if b.UpTo != nil {
				bracket.UpperLimit = decimal.NewNullDecimal(b.UpTo.Decimal)
			}
			return bracket
		}),
	}

	if err := table.Validate(); err != nil {
		return generic.Table{}, err
	}
	return table, nil
}

// ToFile converts a table to its serialized form.
func ToFile(t generic.Table) TableFile {
	return TableFile{
		ID:           string(t.ID),
		Name:         t.Name,
		Jurisdiction: string(t.Jurisdiction),
		Year:         t.Year,
		Currency:     string(t.Currency),
		Brackets: lo.Map(t.Brackets, func(b generic.Bracket, _ int) BracketFile {
			bf := BracketFile{Rate: Amount{b.Rate}, Label: b.Label}
			if !b.Unbounded() {
				bf.UpTo = &Amount{b.UpperLimit.Decimal}
			}
			return bf
		}),
	}
}

// =============================================================================
// FILES
// =============================================================================

// IsTableFile reports whether path has a table file extension.
func IsTableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile reads one table file. The format follows the extension.
func LoadFile(path string) (generic.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return generic.Table{}, fmt.Errorf("failed to read table file: %w", err)
	}

	var table generic.Table
	if strings.EqualFold(filepath.Ext(path), ".json") {
		table, err = ParseJSON(data)
	} else {
		table, err = ParseYAML(data)
	}
	if err != nil {
		return generic.Table{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return table, nil
}

// LoadDir loads every table file in dir (not recursive), in name order.
// Bad files don't stop the load: the valid tables are returned together
// with the joined errors of the others.
func LoadDir(dir string) ([]generic.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables dir: %w", err)
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && IsTableFile(e.Name())
	})
	sort.Strings(names)

	var (
		tables []generic.Table
		errs   []error
	)
	for _, name := range names {
		table, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tables = append(tables, table)
	}
	return tables, errors.Join(errs...)
}
