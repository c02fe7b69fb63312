// Package listing implements the filter, sort and pagination behind every
// list page of the portal.
package listing

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Item is a row that can be searched, filtered by status and sorted.
type Item interface {
	SearchText() string
	FilterStatus() string
	SortKey(field string) string
}

// Query is the parsed state of a list widget.
type Query struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	Sort     string
	Order    string
}

// ParseQuery reads page, pageSize, q, status, sort and order from v.
func ParseQuery(v url.Values) Query {
	q := Query{
		Page:     1,
		PageSize: DefaultPageSize,
		Search:   strings.TrimSpace(v.Get("q")),
		Status:   strings.TrimSpace(v.Get("status")),
		Sort:     strings.TrimSpace(v.Get("sort")),
		Order:    "desc",
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 1 {
		q.Page = p
	}
	if s, err := strconv.Atoi(v.Get("pageSize")); err == nil && s > 0 {
		if s > MaxPageSize {
			s = MaxPageSize
		}
		q.PageSize = s
	}
	if strings.EqualFold(v.Get("order"), "asc") {
		q.Order = "asc"
	}
	return q
}

// Encode renders q as a query string, with overrides taking precedence.
// Defaults are omitted so links stay short.
func (q Query) Encode(overrides map[string]string) string {
	v := url.Values{}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize != DefaultPageSize && q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Order == "asc" {
		v.Set("order", "asc")
	}
	for k, val := range overrides {
		if val == "" {
			v.Del(k)
			continue
		}
		v.Set(k, val)
	}
	return v.Encode()
}

// PageLink returns the query string for page n with every other filter kept.
func (q Query) PageLink(n int) string {
	if n <= 1 {
		return q.Encode(map[string]string{"page": ""})
	}
	return q.Encode(map[string]string{"page": strconv.Itoa(n)})
}

// SortLink toggles the order when field is already the sort field and
// resets to page 1.
func (q Query) SortLink(field string) string {
	order := "desc"
	if q.Sort == field && q.Order == "desc" {
		order = "asc"
	}
	if order == "desc" {
		order = ""
	}
	return q.Encode(map[string]string{"sort": field, "order": order, "page": ""})
}

// Page is one page of filtered, sorted items.
type Page[T Item] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Query      Query
}

// PrevPage and NextPage are used by the pager widget.
func (p Page[T]) PrevPage() int { return p.Page - 1 }
func (p Page[T]) NextPage() int { return p.Page + 1 }

// Apply filters items by search text and status, stable-sorts them and cuts
// out the requested page. A page past the end is clamped to the last page.
func Apply[T Item](items []T, q Query) Page[T] {
	needle := strings.ToLower(q.Search)
	filtered := make([]T, 0, len(items))
	for _, it := range items {
		if q.Status != "" && !strings.EqualFold(it.FilterStatus(), q.Status) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(it.SearchText()), needle) {
			continue
		}
		filtered = append(filtered, it)
	}

	desc := q.Order != "asc"
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i].SortKey(q.Sort), filtered[j].SortKey(q.Sort)
		if desc {
			return a > b
		}
		return a < b
	})

	q, start := Bounds(len(filtered), q)
	end := start + q.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return NewPage(filtered[start:end], len(filtered), q)
}

// Bounds normalizes q against total rows and returns the offset of the
// requested page, clamping a page past the end to the last page.
func Bounds(total int, q Query) (Query, int) {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if last := totalPages(total, q.PageSize); q.Page > last {
		q.Page = last
	}
	return q, (q.Page - 1) * q.PageSize
}

// NewPage wraps rows that were already cut to q's page, e.g. by a database.
func NewPage[T Item](items []T, total int, q Query) Page[T] {
	pages := totalPages(total, q.PageSize)
	return Page[T]{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: pages,
		HasPrev:    q.Page > 1,
		HasNext:    q.Page < pages,
		Query:      q,
	}
}

func totalPages(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}
