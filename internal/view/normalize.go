package view

import (
	"fmt"
	"log"
	"time"

	"jbeauty/content/internal/cms"
	"jbeauty/content/internal/image"
	"jbeauty/content/internal/metrics"
	"jbeauty/content/internal/richtext"
)

// brandImageWidth is the default delivery width for brand eyecatch images.
const brandImageWidth = 400

// NormalizationError reports a record that could not be normalized. For lists
// it is non-fatal (the record is dropped and counted); for singletons it is
// returned to the caller.
type NormalizationError struct {
	Entity string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s record: %s", e.Entity, e.Reason)
}

// Normalizer maps raw records into view models.
type Normalizer struct {
	images *image.Resolver
}

// NewNormalizer creates a normalizer resolving media through images.
func NewNormalizer(images *image.Resolver) *Normalizer {
	return &Normalizer{images: images}
}

// Brands normalizes a brand list. Malformed records are dropped and counted,
// never propagated; an all-invalid input yields an empty list plus warnings,
// which is a legitimate renderable state, not a failure.
func (n *Normalizer) Brands(raw []cms.RawRecord) ([]BrandView, Report) {
	out := make([]BrandView, 0, len(raw))
	var report Report

	for _, record := range raw {
		brand, err := n.brand(record)
		if err != nil {
			report.Dropped++
			report.warn(err.Error())
			log.Printf("view: %v", err)
			metrics.Default().RecordDroppedTotal.WithLabelValues("brand", "invalid").Inc()
			continue
		}
		out = append(out, brand)
	}
	return out, report
}

func (n *Normalizer) brand(raw cms.RawRecord) (BrandView, error) {
	id := str(raw["_id"])
	name := str(raw["name"])
	if id == "" || name == "" {
		return BrandView{}, &NormalizationError{Entity: "brand", Reason: "missing _id or name"}
	}

	category := BrandCategory(str(raw["category"]))
	if !knownCategory(category) {
		return BrandView{}, &NormalizationError{
			Entity: "brand",
			Reason: fmt.Sprintf("unknown category %q (id=%s)", category, id),
		}
	}

	description := richtext.Decode(raw["description"])
	brand := BrandView{
		ID:          id,
		Name:        name,
		NameJa:      str(raw["nameJa"]),
		Category:    category,
		Order:       num(raw["order"]),
		Description: description,
		HasPdf:      boolean(raw["hasPdf"]),
		PdfLabel:    str(raw["pdfLabel"]),
		PdfURL:      str(raw["pdfUrl"]),
	}
	if description != nil {
		brand.DescriptionHTML = richtext.HTML(description)
	}

	if ref := assetRef(raw["eyecatch"]); ref != "" {
		url, err := n.images.Resolve(ref, image.Transform{Width: brandImageWidth})
		if err != nil {
			log.Printf("view: brand %s has unresolvable eyecatch: %v", id, err)
		} else {
			brand.ImageURL = url
		}
	}

	// A PDF flag without a URL must never reach the render boundary.
	if brand.HasPdf && brand.PdfURL == "" {
		log.Printf("view: brand %s claims a PDF but has no URL, clearing flag", id)
		brand.HasPdf = false
	}

	return brand, nil
}

// Groups partitions brands by category in canonical display order, keeping
// the incoming order within each group. Empty categories are omitted.
func Groups(brands []BrandView) []BrandGroup {
	groups := make([]BrandGroup, 0, len(knownCategories))
	for _, category := range knownCategories {
		group := BrandGroup{Category: category, Brands: []BrandView{}}
		for _, b := range brands {
			if b.Category == category {
				group.Brands = append(group.Brands, b)
			}
		}
		if len(group.Brands) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// News normalizes a news list. The incoming order is preserved as-is: the
// pinned-first, newest-first ordering is declared by the query and this layer
// never re-sorts.
func (n *Normalizer) News(raw []cms.RawRecord) ([]NewsView, Report) {
	out := make([]NewsView, 0, len(raw))
	var report Report

	for _, record := range raw {
		id := str(record["_id"])
		title := str(record["title"])
		if id == "" || title == "" {
			report.Dropped++
			report.warn(fmt.Sprintf("news record missing _id or title (id=%q)", id))
			log.Printf("view: dropped news record with missing _id or title")
			metrics.Default().RecordDroppedTotal.WithLabelValues("news", "invalid").Inc()
			continue
		}

		out = append(out, NewsView{
			ID:          id,
			Title:       title,
			Label:       str(record["label"]),
			Pinned:      boolean(record["isPinned"]),
			PublishedAt: date(record["publishedAt"]),
			Excerpt:     str(record["excerpt"]),
		})
	}
	return out, report
}

// NewsDetail normalizes a single news record. A nil record means the id did
// not match anything.
func (n *Normalizer) NewsDetail(raw cms.RawRecord) (NewsDetailView, error) {
	if raw == nil {
		return NewsDetailView{}, &NormalizationError{Entity: "news", Reason: "no record"}
	}
	id := str(raw["_id"])
	title := str(raw["title"])
	if id == "" || title == "" {
		return NewsDetailView{}, &NormalizationError{Entity: "news", Reason: "missing _id or title"}
	}

	body := richtext.Decode(raw["body"])
	return NewsDetailView{
		ID:          id,
		Title:       title,
		Label:       str(raw["label"]),
		Pinned:      boolean(raw["isPinned"]),
		PublishedAt: date(raw["publishedAt"]),
		Body:        body,
		BodyHTML:    richtext.HTML(body),
	}, nil
}

// Profile normalizes the company profile singleton.
func (n *Normalizer) Profile(raw cms.RawRecord) (ProfileView, error) {
	if raw == nil {
		return ProfileView{}, &NormalizationError{Entity: "profile", Reason: "no record"}
	}

	rawRows, _ := raw["rows"].([]any)
	rows := make([]ProfileRow, 0, len(rawRows))
	for _, r := range rawRows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		row := ProfileRow{
			Key:   str(m["key"]),
			Label: str(m["label"]),
			Value: str(m["value"]),
		}
		if values, ok := m["values"].([]any); ok {
			for _, v := range values {
				if s := str(v); s != "" {
					row.Values = append(row.Values, s)
				}
			}
		}
		if row.Label == "" {
			continue
		}
		rows = append(rows, row)
	}

	return ProfileView{Rows: rows}, nil
}

// assetRef extracts the reference from an image field of the form
// {"asset": {"_ref": "image-…", "_type": "reference"}}.
func assetRef(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	asset, ok := m["asset"].(map[string]any)
	if !ok {
		return ""
	}
	return str(asset["_ref"])
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

func num(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	}
	return 0
}

// date parses the content service's timestamp formats, defaulting to the zero
// time when absent or unparseable.
func date(v any) time.Time {
	s := str(v)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	log.Printf("view: unparseable publishedAt %q", s)
	return time.Time{}
}
