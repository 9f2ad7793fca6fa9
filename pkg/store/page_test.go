package store

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cursorStrings(n int) []string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = "c" + strconv.Itoa(i)
	}
	return rows
}

func TestPageFromRowsFullPage(t *testing.T) {
	// limit+1 rows fetched: the overflow row is popped and the cursor comes
	// from the last row kept on the page.
	rows := cursorStrings(4)
	page := PageFromRows(rows, 3, func(s string) string { return s })

	assert.Equal(t, []string{"c0", "c1", "c2"}, page.Items)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "c2", page.NextCursor)
}

func TestPageFromRowsLastPage(t *testing.T) {
	rows := cursorStrings(2)
	page := PageFromRows(rows, 3, func(s string) string { return s })

	assert.Equal(t, []string{"c0", "c1"}, page.Items)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.NextCursor)
}

func TestPageFromRowsExactLimit(t *testing.T) {
	// Exactly limit rows means the backend had nothing extra to give.
	rows := cursorStrings(3)
	page := PageFromRows(rows, 3, func(s string) string { return s })

	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.NextCursor)
}

func TestPageFromRowsEmpty(t *testing.T) {
	page := PageFromRows([]string{}, 3, func(s string) string { return s })

	assert.Empty(t, page.Items)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.NextCursor)
}

func TestPageFromRowsZeroLimit(t *testing.T) {
	// A zero limit disables the overflow pop; everything fetched is returned.
	rows := cursorStrings(5)
	page := PageFromRows(rows, 0, func(s string) string { return s })

	assert.Len(t, page.Items, 5)
	assert.False(t, page.HasNextPage)
}
