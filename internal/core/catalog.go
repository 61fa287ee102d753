package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	// TypeInfo describes an entry type offered to the user.
	TypeInfo struct {
		ID   EntryType `yaml:"id" json:"id"`
		Name string    `yaml:"name" json:"name"`
	}

	// Category is an expense category with the icon stored on its entries.
	Category struct {
		ID   CategoryID `yaml:"id" json:"id"`
		Name string     `yaml:"name" json:"name"`
		Icon string     `yaml:"icon" json:"icon"`
	}

	// Catalog is the read-only reference data consulted by the validator
	// and the presentation layer.
	Catalog interface {
		ListTypes() []TypeInfo
		ListCategories() []Category
		Type(id EntryType) (TypeInfo, bool)
		Category(id CategoryID) (Category, bool)
	}
)

// StaticCatalog is an immutable Catalog built once at startup.
type StaticCatalog struct {
	types      []TypeInfo
	categories []Category
	typeByID   map[EntryType]TypeInfo
	catByID    map[CategoryID]Category
}

var _ Catalog = (*StaticCatalog)(nil)

// DefaultCatalog returns the built-in entry types and expense categories.
func DefaultCatalog() *StaticCatalog {
	c, err := NewCatalog(
		[]TypeInfo{
			{ID: TypeExpense, Name: "Gasto"},
			{ID: TypeIncome, Name: "Ingreso"},
		},
		[]Category{
			{ID: "1", Name: "Comida", Icon: "comida"},
			{ID: "2", Name: "Casa", Icon: "casa"},
			{ID: "3", Name: "Gastos Varios", Icon: "gastos"},
			{ID: "4", Name: "Ocio", Icon: "ocio"},
			{ID: "5", Name: "Suscripciones", Icon: "suscripciones"},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates and indexes the given reference data. Both the expense
// and the income type must be present; ids must be unique and non-empty.
func NewCatalog(types []TypeInfo, categories []Category) (*StaticCatalog, error) {
	c := &StaticCatalog{
		types:      make([]TypeInfo, 0, len(types)),
		categories: make([]Category, 0, len(categories)),
		typeByID:   make(map[EntryType]TypeInfo, len(types)),
		catByID:    make(map[CategoryID]Category, len(categories)),
	}
	for _, t := range types {
		t.ID = EntryType(strings.TrimSpace(string(t.ID)))
		if t.ID != TypeExpense && t.ID != TypeIncome {
			return nil, fmt.Errorf("catalog: unsupported type id %q", t.ID)
		}
		if _, dup := c.typeByID[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate type id %q", t.ID)
		}
		c.typeByID[t.ID] = t
		c.types = append(c.types, t)
	}
	for _, id := range []EntryType{TypeExpense, TypeIncome} {
		if _, ok := c.typeByID[id]; !ok {
			return nil, fmt.Errorf("catalog: missing type id %q", id)
		}
	}
	for _, cat := range categories {
		cat.ID = CategoryID(strings.TrimSpace(string(cat.ID)))
		if cat.ID == "" {
			return nil, fmt.Errorf("catalog: category %q has no id", cat.Name)
		}
		if _, dup := c.catByID[cat.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate category id %q", cat.ID)
		}
		c.catByID[cat.ID] = cat
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

type catalogFile struct {
	Types      []TypeInfo `yaml:"types"`
	Categories []Category `yaml:"categories"`
}

// LoadCatalogFile reads reference data from a YAML file. Omitted sections
// fall back to the built-in values.
func LoadCatalogFile(path string) (*StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	def := DefaultCatalog()
	if len(f.Types) == 0 {
		f.Types = def.ListTypes()
	}
	if len(f.Categories) == 0 {
		f.Categories = def.ListCategories()
	}
	return NewCatalog(f.Types, f.Categories)
}

func (c *StaticCatalog) ListTypes() []TypeInfo {
	return append([]TypeInfo(nil), c.types...)
}

func (c *StaticCatalog) ListCategories() []Category {
	return append([]Category(nil), c.categories...)
}

func (c *StaticCatalog) Type(id EntryType) (TypeInfo, bool) {
	t, ok := c.typeByID[id]
	return t, ok
}

func (c *StaticCatalog) Category(id CategoryID) (Category, bool) {
	cat, ok := c.catByID[id]
	return cat, ok
}
