package scan

import (
	"slices"
	"strings"

	"github.com/roach88/minirel/internal/query"
	"github.com/roach88/minirel/internal/record"
)

// SortKey orders rows by one field.
type SortKey struct {
	Field string
	Desc  bool
}

func (k SortKey) String() string {
	if k.Desc {
		return k.Field + " desc"
	}
	return k.Field
}

// SortKeysString renders keys as a comma-separated list.
func SortKeysString(keys []SortKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

// Sort drains s and returns its rows ordered by keys. The sort is stable,
// so rows equal on every key keep their input order.
func Sort(s query.Scan, sch *record.Schema, keys []SortKey) (*Materialized, error) {
	m, err := Collect(s, sch)
	if err != nil {
		return nil, err
	}
	cols := make([]int, len(keys))
	for i, k := range keys {
		c, ok := m.index[k.Field]
		if !ok {
			return nil, query.UnknownField(k.Field)
		}
		cols[i] = c
	}

	var cmpErr error
	slices.SortStableFunc(m.rows, func(a, b Row) int {
		for i, k := range keys {
			c, err := a[cols[i]].Compare(b[cols[i]])
			if err != nil {
				if cmpErr == nil {
					cmpErr = err
				}
				return 0
			}
			if c == 0 {
				continue
			}
			if k.Desc {
				return -c
			}
			return c
		}
		return 0
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	return m, nil
}
