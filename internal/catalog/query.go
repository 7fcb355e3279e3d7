package catalog

import (
	"strings"

	"library-client/internal/domain"
)

// Query narrows the catalog. Zero fields match everything; set fields combine with AND.
type Query struct {
	CategoryID int64
	Search     string
}

// Match reports whether b is in the category and its title or author
// contains the search term, ignoring case.
func (q Query) Match(b *domain.Book) bool {
	if q.CategoryID != 0 && b.CategoryID != q.CategoryID {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Title), term) ||
		strings.Contains(strings.ToLower(b.Author), term)
}

// Page is one page of a filtered listing.
type Page struct {
	Books  []*domain.Book
	Number int
	Pages  int
	Total  int
}

// Pager tracks the current page of a filtered listing. The page goes back
// to 1 whenever the query or the number of matching books changes. A Pager
// belongs to one view and is not safe for concurrent use.
type Pager struct {
	size  int
	page  int
	query Query
	total int
	seen  bool
}

// NewPager creates a pager showing size books per page.
func NewPager(size int) *Pager {
	if size <= 0 {
		size = 1
	}
	return &Pager{size: size, page: 1}
}

// Browse filters the cache with q and returns the current page.
func (p *Pager) Browse(c *Cache, q Query) Page {
	books := c.Filter(q)

	if !p.seen || q != p.query || len(books) != p.total {
		p.page = 1
	}
	p.seen = true
	p.query = q
	p.total = len(books)

	pages := p.Pages()
	if p.page > pages {
		p.page = pages
	}

	start := (p.page - 1) * p.size
	end := start + p.size
	if start > len(books) {
		start = len(books)
	}
	if end > len(books) {
		end = len(books)
	}

	return Page{
		Books:  books[start:end],
		Number: p.page,
		Pages:  pages,
		Total:  len(books),
	}
}

// Pages is the page count of the last browse; an empty listing has one page.
func (p *Pager) Pages() int {
	if p.total == 0 {
		return 1
	}
	return (p.total + p.size - 1) / p.size
}

// Current returns the current page number.
func (p *Pager) Current() int {
	return p.page
}

// Go moves to page n, clamped to [1, Pages]. It takes effect on the next Browse.
func (p *Pager) Go(n int) {
	switch pages := p.Pages(); {
	case n < 1:
		p.page = 1
	case n > pages:
		p.page = pages
	default:
		p.page = n
	}
}

// Next and Prev step one page, staying in range.
func (p *Pager) Next() { p.Go(p.page + 1) }
func (p *Pager) Prev() { p.Go(p.page - 1) }
