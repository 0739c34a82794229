package store

import "context"

// DefaultPageSize matches the PostgREST max-rows cap configured on the backend.
const DefaultPageSize = 1000

// PageFunc fetches one page of rows for the inclusive index range [from, to].
type PageFunc[T any] func(ctx context.Context, from, to int) ([]T, error)

// FetchAll drains a range-paginated query by requesting consecutive index
// ranges until a short or empty page signals end-of-data. Pages are requested
// sequentially because each range's existence depends on the prior page size.
// On error the rows accumulated so far are returned together with the error.
func FetchAll[T any](ctx context.Context, page PageFunc[T], pageSize int) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var rows []T
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		chunk, err := page(ctx, offset, offset+pageSize-1)
		if err != nil {
			return rows, err
		}
		if len(chunk) == 0 {
			return rows, nil
		}
		rows = append(rows, chunk...)
		if len(chunk) < pageSize {
			return rows, nil
		}
		offset += pageSize
	}
}
