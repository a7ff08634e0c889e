package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawProductRecord is a product as handed over by an acquisition source.
// It is one of CatalogRecord, TagRecord or VisionRecord.
type RawProductRecord interface {
	isRawProductRecord()
}

// CatalogRecord is the shape produced by the built-in product catalog
type CatalogRecord struct {
	Found       bool        `json:"found"`
	Barcode     string      `json:"barcode,omitempty"`
	Name        string      `json:"name"`
	Ingredients Ingredients `json:"ingredients"`
	Allergens   []string    `json:"allergens"`
}

// TagRecord is the shape produced by Open Food Facts style sources,
// where allergens are language-prefixed tags such as "en:milk"
type TagRecord struct {
	Found           bool     `json:"found"`
	Barcode         string   `json:"barcode,omitempty"`
	Name            string   `json:"name"`
	Brands          string   `json:"brands,omitempty"`
	ImageURL        string   `json:"image,omitempty"`
	IngredientsText string   `json:"ingredients_text"`
	AllergensTags   []string `json:"allergens_tags"`
}

// VisionRecord is the shape produced by label image analysis
type VisionRecord struct {
	Status       string   `json:"status"`
	Detected     []string `json:"detected"`
	Alternatives []string `json:"alternatives"`
}

func (CatalogRecord) isRawProductRecord() {}
func (TagRecord) isRawProductRecord()     {}
func (VisionRecord) isRawProductRecord()  {}

// NotFoundRecord is the canonical "no such product" record
func NotFoundRecord() RawProductRecord {
	return TagRecord{Found: false}
}

// Ingredients holds an ingredient list that may arrive either as a list
// of strings or as a single free-text string.
type Ingredients []string

// UnmarshalJSON accepts both a JSON array of strings and a plain string
func (i *Ingredients) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*i = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "\"") {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*i = Ingredients{text}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("ingredients must be a string or a list of strings: %w", err)
	}
	*i = Ingredients(list)
	return nil
}

// Text joins the ingredients with single spaces
func (i Ingredients) Text() string {
	return strings.Join(i, " ")
}

// ProductSummary is the display part of a product
type ProductSummary struct {
	Name     string `json:"name"`
	Barcode  string `json:"barcode,omitempty"`
	Brands   string `json:"brands,omitempty"`
	ImageURL string `json:"image,omitempty"`
}

// NormalizedProduct is the canonical product consumed by the matcher
type NormalizedProduct struct {
	Summary ProductSummary

	// DeclaredAllergens keep their display spelling with tag prefixes removed.
	// Entries are unique under case-insensitive comparison.
	DeclaredAllergens []string

	// IngredientText is lower-cased
	IngredientText string
}
