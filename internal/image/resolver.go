// Package image resolves opaque asset references into delivery URLs.
// Resolution is pure string construction; no network round-trip happens here.
package image

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Transform holds the delivery parameters appended to a resolved URL.
// Zero-valued fields are omitted.
type Transform struct {
	Width  int
	Height int
	// Fit is the delivery fit mode (e.g. "crop", "max").
	Fit string
}

// Resolver builds delivery URLs for one project/dataset pair.
type Resolver struct {
	baseURL string
	project string
	dataset string
}

// NewResolver creates a resolver rooted at baseURL (e.g. "https://cdn.sanity.io").
func NewResolver(baseURL, project, dataset string) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		project: project,
		dataset: dataset,
	}
}

// Resolve turns an asset reference of the form
// "image-{assetID}-{W}x{H}-{format}" into a delivery URL with t's parameters.
// Identical inputs always yield the identical URL string.
func (r *Resolver) Resolve(ref string, t Transform) (string, error) {
	id, dims, format, err := parseRef(ref)
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/images/%s/%s/%s-%s.%s", r.baseURL, r.project, r.dataset, id, dims, format)

	q := url.Values{}
	if t.Width > 0 {
		q.Set("w", strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		q.Set("h", strconv.Itoa(t.Height))
	}
	if t.Fit != "" {
		q.Set("fit", t.Fit)
	}
	q.Set("auto", "format")

	return u + "?" + q.Encode(), nil
}

// parseRef splits "image-{assetID}-{W}x{H}-{format}" into its parts.
func parseRef(ref string) (id, dims, format string, err error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 4 || parts[0] != "image" {
		return "", "", "", fmt.Errorf("malformed asset ref %q", ref)
	}
	id, dims, format = parts[1], parts[2], parts[3]

	w, h, ok := strings.Cut(dims, "x")
	if !ok || !digits(w) || !digits(h) {
		return "", "", "", fmt.Errorf("malformed dimensions in asset ref %q", ref)
	}
	if id == "" || format == "" {
		return "", "", "", fmt.Errorf("malformed asset ref %q", ref)
	}
	return id, dims, format, nil
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
