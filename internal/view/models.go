// Package view normalizes raw content records into typed, UI-ready view
// models. No untyped value crosses this boundary: every optional field gets an
// explicit default and enum-typed fields are validated against the known set.
package view

import (
	"time"

	"jbeauty/content/internal/richtext"
)

// BrandCategory is the known set of brand categories.
type BrandCategory string

const (
	CategoryFragrance        BrandCategory = "fragrance"
	CategoryOrganicCosmetics BrandCategory = "organic_cosmetics"
)

// knownCategories lists every category in display order.
var knownCategories = []BrandCategory{CategoryFragrance, CategoryOrganicCosmetics}

func knownCategory(c BrandCategory) bool {
	for _, k := range knownCategories {
		if c == k {
			return true
		}
	}
	return false
}

// BrandView is one brand card.
type BrandView struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	NameJa          string            `json:"nameJa"`
	Category        BrandCategory     `json:"category"`
	Order           int               `json:"order"`
	ImageURL        string            `json:"imageUrl"`
	Description     richtext.Document `json:"-"`
	DescriptionHTML string            `json:"descriptionHtml"`
	HasPdf          bool              `json:"hasPdf"`
	PdfLabel        string            `json:"pdfLabel"`
	PdfURL          string            `json:"pdfUrl"`
}

// BrandGroup is one category partition of the brand list, preserving the
// query's sort order within the group.
type BrandGroup struct {
	Category BrandCategory `json:"category"`
	Brands   []BrandView   `json:"brands"`
}

// NewsView is one entry of the news list.
type NewsView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Label       string    `json:"label"`
	Pinned      bool      `json:"pinned"`
	PublishedAt time.Time `json:"publishedAt"`
	Excerpt     string    `json:"excerpt"`
}

// NewsDetailView is one full news record including its rich-text body.
type NewsDetailView struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Label       string            `json:"label"`
	Pinned      bool              `json:"pinned"`
	PublishedAt time.Time         `json:"publishedAt"`
	Body        richtext.Document `json:"-"`
	BodyHTML    string            `json:"bodyHtml"`
}

// ProfileRow is one labelled row of the company profile table. Value and
// Values are mutually exclusive; multi-value rows fill Values.
type ProfileRow struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Value  string   `json:"value"`
	Values []string `json:"values,omitempty"`
}

// ProfileView is the company profile.
type ProfileView struct {
	Rows []ProfileRow `json:"rows"`
}

// Report accompanies every list normalization: how many records were dropped
// and why. Warnings are developer-facing only; a partially-invalid record set
// still renders its valid subset.
type Report struct {
	Dropped  int
	Warnings []string
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
