// Package groq builds the parameterized content queries the site sends to the
// content service. Queries are immutable once built and carry a canonical key
// so that two queries with the same shape are interchangeable for caching.
package groq

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Entity is a named content type in the remote store.
type Entity string

const (
	EntityBrand   Entity = "brand"
	EntityNews    Entity = "news"
	EntityProfile Entity = "profile"
)

func knownEntity(e Entity) bool {
	switch e {
	case EntityBrand, EntityNews, EntityProfile:
		return true
	}
	return false
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter is an equality predicate. When Param is set the comparison renders as
// a placeholder ($name) and Value travels in the parameter map instead of the
// query text.
type Filter struct {
	Field string
	Value any
	Param string
}

// Eq builds a literal equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// EqParam builds an equality filter against a named parameter.
func EqParam(field, param string, value any) Filter {
	return Filter{Field: field, Param: param, Value: value}
}

// Sort is one (field, direction) pair of a sort clause.
type Sort struct {
	Field string
	Dir   Direction
}

// Field is one projection entry. Expr, when set, projects a derived alias
// (e.g. "pdfUrl": pdf.asset->url) instead of a plain field.
type Field struct {
	Name string
	Expr string
}

// Options enumerates the recognized query knobs.
type Options struct {
	Filter  []Filter
	Sort    []Sort
	Project []Field
	// First selects the first match instead of the full list.
	First bool
}

// InvalidQueryError reports a malformed query request. It is a programmer
// error and is never retried.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Reason
}

// Query is an immutable, fully rendered content query.
type Query struct {
	entity    Entity
	text      string
	params    map[string]any
	singleton bool
}

// Build renders a query for entity from opts.
//
// A query is singleton-shaped when opts.First is set, when a filter targets
// the unique _id key, or when the entity itself is a singleton (profile).
func Build(entity Entity, opts Options) (Query, error) {
	if !knownEntity(entity) {
		return Query{}, &InvalidQueryError{Reason: fmt.Sprintf("unknown entity %q", entity)}
	}

	if len(opts.Project) > 0 {
		projected := make(map[string]bool, len(opts.Project))
		for _, f := range opts.Project {
			projected[f.Name] = true
		}
		for _, s := range opts.Sort {
			if !projected[s.Field] {
				return Query{}, &InvalidQueryError{
					Reason: fmt.Sprintf("sort field %q is not in the projection", s.Field),
				}
			}
		}
	}

	singleton := opts.First || entity == EntityProfile
	params := map[string]any{}

	var b strings.Builder
	b.WriteString(`*[_type == "`)
	b.WriteString(string(entity))
	b.WriteString(`"`)
	for _, f := range opts.Filter {
		b.WriteString(" && ")
		b.WriteString(f.Field)
		b.WriteString(" == ")
		if f.Param != "" {
			b.WriteString("$" + f.Param)
			params[f.Param] = f.Value
		} else {
			b.WriteString(renderLiteral(f.Value))
		}
		if f.Field == "_id" {
			singleton = true
		}
	}
	b.WriteString("]")

	if len(opts.Sort) > 0 {
		clauses := make([]string, 0, len(opts.Sort))
		for _, s := range opts.Sort {
			dir := s.Dir
			if dir == "" {
				dir = Asc
			}
			clauses = append(clauses, s.Field+" "+string(dir))
		}
		b.WriteString(" | order(")
		b.WriteString(strings.Join(clauses, ", "))
		b.WriteString(")")
	}

	if singleton {
		b.WriteString("[0]")
	}

	if len(opts.Project) > 0 {
		names := make([]string, 0, len(opts.Project))
		for _, f := range opts.Project {
			if f.Expr != "" {
				names = append(names, fmt.Sprintf("%q: %s", f.Name, f.Expr))
			} else {
				names = append(names, f.Name)
			}
		}
		b.WriteString(" { ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(" }")
	}

	if len(params) == 0 {
		params = nil
	}
	return Query{entity: entity, text: b.String(), params: params, singleton: singleton}, nil
}

func renderLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case string:
		return strconv.Quote(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%q", fmt.Sprint(t))
	}
}

// Entity returns the queried entity.
func (q Query) Entity() Entity { return q.entity }

// String returns the rendered query text.
func (q Query) String() string { return q.text }

// Singleton reports whether the query resolves to a single record rather
// than a list.
func (q Query) Singleton() bool { return q.singleton }

// Params returns a copy of the parameter map, or nil when the query carries
// no parameters.
func (q Query) Params() map[string]any {
	if q.params == nil {
		return nil
	}
	out := make(map[string]any, len(q.params))
	for k, v := range q.params {
		out[k] = v
	}
	return out
}

// Key returns the canonical identity of the query: the rendered text plus the
// parameter map in sorted-key order. Queries with equal keys are
// interchangeable.
func (q Query) Key() string {
	if q.params == nil {
		return q.text
	}
	keys := make([]string, 0, len(q.params))
	for k := range q.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(q.text)
	for _, k := range keys {
		b.WriteString("|$")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fmt.Sprint(q.params[k]))
	}
	return b.String()
}
