// Package catalog serves products from a static YAML catalog.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/allergenapp/backend/internal/domain"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type catalogFile struct {
	Products []catalogProduct `yaml:"products"`
}

type catalogProduct struct {
	Barcode     string           `yaml:"barcode"`
	Name        string           `yaml:"name"`
	Ingredients ingredientsField `yaml:"ingredients"`
	Allergens   []string         `yaml:"allergens"`
}

// ingredientsField accepts a YAML sequence or a single scalar
type ingredientsField []string

func (f *ingredientsField) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*f = ingredientsField{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*f = ingredientsField(list)
		return nil
	default:
		return fmt.Errorf("line %d: ingredients must be a string or a list", value.Line)
	}
}

// Catalog is an in-memory product catalog
type Catalog struct {
	products  []domain.CatalogRecord
	byBarcode map[string]int
}

// Load reads the catalog at path, or the built-in catalog when path is empty
func Load(path string) (*Catalog, error) {
	data := builtinCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}
	return Parse(data)
}

// Parse builds a catalog from YAML
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byBarcode: make(map[string]int, len(file.Products))}
	for i, p := range file.Products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("catalog product %d has no name", i)
		}
		record := domain.CatalogRecord{
			Found:       true,
			Barcode:     strings.TrimSpace(p.Barcode),
			Name:        p.Name,
			Ingredients: domain.Ingredients(p.Ingredients),
			Allergens:   p.Allergens,
		}
		if record.Barcode != "" {
			if _, dup := c.byBarcode[record.Barcode]; dup {
				return nil, fmt.Errorf("duplicate barcode %s in catalog", record.Barcode)
			}
			c.byBarcode[record.Barcode] = len(c.products)
		}
		c.products = append(c.products, record)
	}
	return c, nil
}

// Name identifies the source in logs
func (c *Catalog) Name() string {
	return "catalog"
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}

// LookupBarcode returns the product with an exactly matching barcode
func (c *Catalog) LookupBarcode(ctx context.Context, barcode string) (domain.RawProductRecord, error) {
	if idx, ok := c.byBarcode[strings.TrimSpace(barcode)]; ok {
		return c.products[idx], nil
	}
	return domain.NotFoundRecord(), nil
}

// SearchByName returns the first product whose name contains the query, case-insensitively
func (c *Catalog) SearchByName(ctx context.Context, query string) (domain.RawProductRecord, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.NotFoundRecord(), nil
	}
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return p, nil
		}
	}
	return domain.NotFoundRecord(), nil
}
