package artic

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the public Art Institute of Chicago API root.
	DefaultBaseURL = "https://api.artic.edu/api/v1"
	// DefaultIIIFURL serves artwork images by image id.
	DefaultIIIFURL = "https://www.artic.edu/iiif/2"
	// PageSize is the number of records requested per page by every caller.
	PageSize = 10
	// ImageWidth is the IIIF width requested for list and detail images.
	ImageWidth = 843
)

var (
	// SearchFields is the projection requested by the search mode.
	SearchFields = []string{"id", "image_id", "title", "thumbnail", "artist_title", "is_public_domain", "is_on_view"}
	// IDFields is the projection requested by the id-list mode.
	IDFields = []string{"id", "title", "image_id", "thumbnail", "artist_title"}
	// DetailFields is the projection requested for a single artwork.
	DetailFields = []string{
		"id", "title", "image_id", "thumbnail", "artist_title", "artist_display",
		"date_display", "medium_display", "place_of_origin", "dimensions", "credit_line",
		"description", "short_description", "is_public_domain", "is_on_view",
	}
)

// Filters narrows a search to public-domain works or works currently on view.
type Filters struct {
	IsPublicDomain bool
	IsOnView       bool
}

// Any reports whether at least one filter is active.
func (f Filters) Any() bool {
	return f.IsPublicDomain || f.IsOnView
}

// filterRule appends one term filter when its predicate holds. Rules are
// evaluated in declaration order and only the first active rule is encoded,
// since the catalog accepts a single term per query.
type filterRule struct {
	field  string
	active func(Filters) bool
}

var filterRules = []filterRule{
	{field: "is_public_domain", active: func(f Filters) bool { return f.IsPublicDomain }},
	{field: "is_on_view", active: func(f Filters) bool { return f.IsOnView }},
}

// ActiveFilter returns the field name of the filter that will be encoded, or
// an empty string when no filter is active.
func (f Filters) ActiveFilter() string {
	for _, rule := range filterRules {
		if rule.active(f) {
			return rule.field
		}
	}
	return ""
}

// QueryDescriptor fully describes one page request. A non-nil IDs slice
// switches the descriptor to the id-list mode.
type QueryDescriptor struct {
	BaseURL    string
	SearchTerm string
	Page       int
	PageSize   int
	Filters    Filters
	Fields     []string
	IDs        []int
}

// SearchQuery returns the descriptor for one page of a catalog search.
func SearchQuery(baseURL, term string, filters Filters, page int) QueryDescriptor {
	return QueryDescriptor{
		BaseURL:    baseURL,
		SearchTerm: term,
		Page:       page,
		PageSize:   PageSize,
		Filters:    filters,
		Fields:     SearchFields,
	}
}

// IDQuery returns the descriptor for one page of an explicit id list.
func IDQuery(baseURL string, ids []int, page int) QueryDescriptor {
	if ids == nil {
		ids = []int{}
	}
	return QueryDescriptor{
		BaseURL:  baseURL,
		Page:     page,
		PageSize: PageSize,
		Fields:   IDFields,
		IDs:      ids,
	}
}

// ByIDs reports whether the descriptor addresses an id list.
func (q QueryDescriptor) ByIDs() bool {
	return q.IDs != nil
}

// PageIDs returns the ids covered by the descriptor's page.
func (q QueryDescriptor) PageIDs() []int {
	return IDPage(q.IDs, q.Page, q.PageSize)
}

// URL renders the descriptor. Equal descriptors always render identical URLs.
func (q QueryDescriptor) URL() (string, error) {
	if q.Page < 1 {
		return "", &InvalidQueryError{Reason: fmt.Sprintf("page must be >= 1, got %d", q.Page)}
	}
	if q.PageSize <= 0 {
		return "", &InvalidQueryError{Reason: fmt.Sprintf("page size must be positive, got %d", q.PageSize)}
	}
	base := strings.TrimRight(q.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if q.ByIDs() {
		return buildIDsURL(base, q.PageIDs(), q.Fields), nil
	}
	return buildSearchURL(base, q.SearchTerm, q.Filters, q.Page, q.PageSize, q.Fields), nil
}

func buildSearchURL(base, term string, filters Filters, page, size int, fields []string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("/artworks/search?q=")
	b.WriteString(url.QueryEscape(term))
	b.WriteString("&page=")
	b.WriteString(strconv.Itoa(page))
	b.WriteString("&limit=")
	b.WriteString(strconv.Itoa(size))
	if field := filters.ActiveFilter(); field != "" {
		b.WriteString("&query[term][")
		b.WriteString(field)
		b.WriteString("]=true")
	}
	b.WriteString("&fields=")
	b.WriteString(strings.Join(fields, ","))
	return b.String()
}

func buildIDsURL(base string, ids []int, fields []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("%s/artworks?ids=%s&fields=%s", base, strings.Join(parts, ","), strings.Join(fields, ","))
}

// IDPage slices ids into the window [(page-1)*size, page*size), clamped to
// the bounds of ids. Pages past the end yield an empty slice.
func IDPage(ids []int, page, size int) []int {
	if size <= 0 {
		size = PageSize
	}
	start := (page - 1) * size
	if start < 0 {
		start = 0
	}
	end := page * size
	if end > len(ids) {
		end = len(ids)
	}
	if start >= end {
		return []int{}
	}
	out := make([]int, end-start)
	copy(out, ids[start:end])
	return out
}

// IDPageCount is the number of pages needed to cover n ids.
func IDPageCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// DetailURL addresses a single artwork with the detail projection.
func DetailURL(baseURL string, id int) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/artworks/%d?fields=%s", base, id, strings.Join(DetailFields, ","))
}

// ImageURL returns the IIIF JPEG for an image id, or an empty string when the
// artwork has no image.
func ImageURL(iiifURL, imageID string) string {
	if imageID == "" {
		return ""
	}
	base := strings.TrimRight(iiifURL, "/")
	if base == "" {
		base = DefaultIIIFURL
	}
	return fmt.Sprintf("%s/%s/full/%d,/0/default.jpg", base, url.PathEscape(imageID), ImageWidth)
}
