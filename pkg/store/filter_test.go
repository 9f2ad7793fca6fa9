package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterConstructors(t *testing.T) {
	assert.Equal(t, Filter{Column: "email", Op: OpEquals, Value: "a@b.c"}, Equals("email", "a@b.c"))
	assert.Equal(t, Filter{Column: "plan", Op: OpNotEquals, Value: "free"}, NotEquals("plan", "free"))
	assert.Equal(t, Filter{Column: "deleted_at", Op: OpIsNull}, IsNull("deleted_at"))
	assert.Equal(t, Filter{Column: "deleted_at", Op: OpNotNull}, NotNull("deleted_at"))
	assert.Equal(t, Filter{Column: "token_balance", Op: OpGte, Value: 10}, Gte("token_balance", 10))
	assert.Equal(t, Filter{Column: "token_balance", Op: OpLte, Value: 10}, Lte("token_balance", 10))
}

func TestInFilter(t *testing.T) {
	f := In("plan", []string{"free", "pro"})
	assert.Equal(t, "plan", f.Column)
	assert.Equal(t, OpIn, f.Op)
	assert.Equal(t, []any{"free", "pro"}, f.Value)
}

func TestSortColumn(t *testing.T) {
	tests := []struct {
		sort   string
		column string
		desc   bool
	}{
		{"", "", false},
		{"updated_at", "updated_at", false},
		{"updated_at:asc", "updated_at", false},
		{"updated_at:desc", "updated_at", true},
		{"created_at:DESC", "created_at", false}, // direction is lowercase only
	}
	for _, tt := range tests {
		column, desc := Options{Sort: tt.sort}.SortColumn()
		assert.Equal(t, tt.column, column, "sort %q", tt.sort)
		assert.Equal(t, tt.desc, desc, "sort %q", tt.sort)
	}
}
