package engine

// DefaultMaxRows is the default maximum number of rows a query may return.
// Cross products grow quickly; the limit stops one statement from
// exhausting memory.
const DefaultMaxRows = 1_000_000

// rowQuota counts the rows produced by one query.
type rowQuota struct {
	maxRows int
	current int
}

func newRowQuota(maxRows int) *rowQuota {
	return &rowQuota{maxRows: maxRows}
}

// Check counts one more row and fails once the limit is passed.
// A limit of zero or less means unlimited.
func (q *rowQuota) Check() error {
	q.current++
	if q.maxRows > 0 && q.current > q.maxRows {
		return planErrorf(ErrCodeRowLimit, "query produced more than %d rows", q.maxRows)
	}
	return nil
}
