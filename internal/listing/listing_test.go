package listing

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	name   string
	status string
	n      int
}

func (r row) SearchText() string   { return r.name }
func (r row) FilterStatus() string { return r.status }
func (r row) SortKey(field string) string {
	if field == "name" {
		return r.name
	}
	return fmt.Sprintf("%03d", r.n)
}

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		status := "pending"
		if i%2 == 1 {
			status = "approved"
		}
		out[i] = row{name: fmt.Sprintf("crew-%02d", i), status: status, n: i}
	}
	return out
}

// ==========================
// ParseQuery Tests
// ==========================

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Query
	}{
		{"defaults", "", Query{Page: 1, PageSize: 10, Order: "desc"}},
		{"explicit", "page=3&pageSize=25&q=+Smith+&status=approved&sort=name&order=ASC",
			Query{Page: 3, PageSize: 25, Search: "Smith", Status: "approved", Sort: "name", Order: "asc"}},
		{"invalid numbers fall back", "page=-2&pageSize=abc", Query{Page: 1, PageSize: 10, Order: "desc"}},
		{"page size capped", "pageSize=5000", Query{Page: 1, PageSize: 100, Order: "desc"}},
		{"unknown order is desc", "order=sideways", Query{Page: 1, PageSize: 10, Order: "desc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := url.ParseQuery(tt.raw)
			assert.Equal(t, tt.want, ParseQuery(v))
		})
	}
}

func TestQuery_Encode(t *testing.T) {
	q := Query{Page: 2, PageSize: 10, Search: "smith", Status: "pending", Order: "desc"}
	assert.Equal(t, "page=2&q=smith&status=pending", q.Encode(nil))
	assert.Equal(t, "page=3&q=smith&status=pending", q.PageLink(3))
	assert.Equal(t, "q=smith&status=pending", q.PageLink(1))
	assert.Equal(t, "page=2&q=smith", q.Encode(map[string]string{"status": ""}))
}

func TestQuery_SortLinkToggles(t *testing.T) {
	q := Query{Page: 4, PageSize: 10, Sort: "name", Order: "desc"}
	assert.Equal(t, "order=asc&sort=name", q.SortLink("name"))
	assert.Equal(t, "sort=date", q.SortLink("date"))
}

// ==========================
// Apply Tests
// ==========================

func TestApply_Paginates(t *testing.T) {
	p := Apply(rows(23), Query{Page: 2, PageSize: 10, Order: "asc"})
	assert.Equal(t, 23, p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.Len(t, p.Items, 10)
	assert.Equal(t, 10, p.Items[0].n)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
}

func TestApply_ClampsPastEnd(t *testing.T) {
	p := Apply(rows(23), Query{Page: 9, PageSize: 10, Order: "asc"})
	assert.Equal(t, 3, p.Page)
	assert.Len(t, p.Items, 3)
	assert.False(t, p.HasNext)
	assert.Equal(t, 3, p.Query.Page)
}

func TestApply_EmptyHasOnePage(t *testing.T) {
	p := Apply([]row{}, Query{Page: 4, PageSize: 10})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 0, p.Total)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasPrev)
	assert.False(t, p.HasNext)
}

func TestApply_FiltersAndSorts(t *testing.T) {
	p := Apply(rows(10), Query{Page: 1, PageSize: 10, Status: "APPROVED", Order: "desc"})
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 9, p.Items[0].n)
	assert.Equal(t, 1, p.Items[4].n)

	p = Apply(rows(20), Query{Page: 1, PageSize: 10, Search: "CREW-1", Sort: "name", Order: "asc"})
	assert.Equal(t, 10, p.Total)
	assert.Equal(t, "crew-10", p.Items[0].name)
}

func TestApply_StableForEqualKeys(t *testing.T) {
	items := []row{{name: "b", n: 1}, {name: "a", n: 1}, {name: "c", n: 1}}
	p := Apply(items, Query{Page: 1, PageSize: 10, Order: "desc"})
	assert.Equal(t, "b", p.Items[0].name)
	assert.Equal(t, "a", p.Items[1].name)
	assert.Equal(t, "c", p.Items[2].name)
}

func TestBounds(t *testing.T) {
	q, offset := Bounds(45, Query{Page: 3, PageSize: 20})
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 40, offset)

	q, offset = Bounds(45, Query{Page: 7, PageSize: 20})
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 40, offset)

	q, offset = Bounds(0, Query{})
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Equal(t, 0, offset)
}
