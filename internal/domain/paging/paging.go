// Package paging holds limit/offset pagination shared by listing endpoints.
package paging

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Page is a limit/offset window over an ordered listing. Repositories that
// accept an unbounded listing treat a zero Limit as no limit.
type Page struct {
	Limit  int
	Offset int
}

// New normalizes caller input. Non-positive limits fall back to def, limits
// above MaxLimit are capped, and negative offsets become zero.
func New(limit, offset, def int) Page {
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
