package store

// Page is one window of a cursor-paginated listing.
//
// Cursors compare strictly against the sort column, so rows sharing the exact
// sort value at a page boundary can be skipped or repeated. Existing clients
// depend on this wire behavior; the sort column is a timestamp, which keeps
// collisions rare in practice.
type Page[T any] struct {
	Items       []T    `json:"items"`
	NextCursor  string `json:"nextCursor,omitempty"`
	HasNextPage bool   `json:"hasNextPage"`
}

// PageFromRows turns an over-fetched row slice into a Page. Callers query
// limit+1 rows in sort order; if the extra row came back it is popped and its
// presence sets HasNextPage, and the cursor is taken from the last row that
// remains on the page.
//
// This is the single pagination algorithm for every listing operation in
// every backend. Cursor-advance bugs are pagination bugs, so the logic is
// factored once rather than re-derived per call site.
func PageFromRows[T any](rows []T, limit int, cursorOf func(T) string) Page[T] {
	page := Page[T]{Items: rows}
	if limit > 0 && len(rows) > limit {
		page.Items = rows[:limit]
		page.HasNextPage = true
	}
	if page.HasNextPage && len(page.Items) > 0 {
		page.NextCursor = cursorOf(page.Items[len(page.Items)-1])
	}
	return page
}
