package groq

// Canned queries for the site's content pages. Page handlers must go through
// these so that ordering and projections are declared in exactly one place.

// BrandList returns the brand listing query: visible brands in display order,
// with the PDF asset dereferenced to its delivery URL.
func BrandList() Query {
	q, err := Build(EntityBrand, Options{
		Filter: []Filter{Eq("isHidden", false)},
		Sort:   []Sort{{Field: "order", Dir: Asc}},
		Project: []Field{
			{Name: "_id"},
			{Name: "name"},
			{Name: "nameJa"},
			{Name: "category"},
			{Name: "order"},
			{Name: "eyecatch"},
			{Name: "description"},
			{Name: "hasPdf"},
			{Name: "pdfLabel"},
			{Name: "pdfUrl", Expr: "pdf.asset->url"},
		},
	})
	if err != nil {
		panic(err) // static query, cannot fail
	}
	return q
}

// NewsList returns the news listing query: visible items, pinned first, then
// newest first. The sort is always declared here; consumers never re-sort.
func NewsList() Query {
	q, err := Build(EntityNews, Options{
		Filter: []Filter{Eq("isHidden", false)},
		Sort: []Sort{
			{Field: "isPinned", Dir: Desc},
			{Field: "publishedAt", Dir: Desc},
		},
		Project: []Field{
			{Name: "_id"},
			{Name: "title"},
			{Name: "publishedAt"},
			{Name: "label"},
			{Name: "isPinned"},
			{Name: "excerpt"},
		},
	})
	if err != nil {
		panic(err)
	}
	return q
}

// NewsByID returns the singleton query for one news record, body included.
func NewsByID(id string) Query {
	q, err := Build(EntityNews, Options{
		Filter: []Filter{EqParam("_id", "id", id)},
		First:  true,
	})
	if err != nil {
		panic(err)
	}
	return q
}

// Profile returns the singleton company profile query.
func Profile() Query {
	q, err := Build(EntityProfile, Options{})
	if err != nil {
		panic(err)
	}
	return q
}
