package store

// FilterOp enumerates the comparison operators a backend must support.
// Filters are an explicit tagged variant rather than a map with magic keys:
// the operator is always visible in the type, and adding a new operator is a
// compile-visible change in both backends.
type FilterOp string

const (
	OpEquals    FilterOp = "eq"
	OpNotEquals FilterOp = "neq"
	OpIn        FilterOp = "in"
	OpIsNull    FilterOp = "is_null"
	OpNotNull   FilterOp = "not_null"
	OpGte       FilterOp = "gte"
	OpLte       FilterOp = "lte"
)

// Filter is one predicate on a column. Value is unused for the null checks
// and must be a slice for OpIn.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

func Equals(column string, value any) Filter {
	return Filter{Column: column, Op: OpEquals, Value: value}
}

func NotEquals(column string, value any) Filter {
	return Filter{Column: column, Op: OpNotEquals, Value: value}
}

// In matches rows whose column value is one of values.
func In[T any](column string, values []T) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Filter{Column: column, Op: OpIn, Value: vs}
}

func IsNull(column string) Filter {
	return Filter{Column: column, Op: OpIsNull}
}

func NotNull(column string) Filter {
	return Filter{Column: column, Op: OpNotNull}
}

func Gte(column string, value any) Filter {
	return Filter{Column: column, Op: OpGte, Value: value}
}

func Lte(column string, value any) Filter {
	return Filter{Column: column, Op: OpLte, Value: value}
}

// Options shapes a query beyond its filters: projection, ordering, paging.
// Sort is "column:direction" ("updated_at:desc"); a bare column name sorts
// ascending.
type Options struct {
	Select []string
	Sort   string
	Limit  int
	Offset int
}

// SortColumn splits the Sort spec into its column and direction. An empty
// spec returns ("", false); a spec without a direction sorts ascending.
func (o Options) SortColumn() (column string, desc bool) {
	if o.Sort == "" {
		return "", false
	}
	for i := 0; i < len(o.Sort); i++ {
		if o.Sort[i] == ':' {
			return o.Sort[:i], o.Sort[i+1:] == "desc"
		}
	}
	return o.Sort, false
}
