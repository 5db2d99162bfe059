// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows shown in paged lists.
// Keep this as an int because most call sites add/subtract and then
// cast to int64 for Mongo Find().SetLimit().
const PageSize = 50

// MaxPageSize caps the "size" query parameter.
const MaxPageSize = 500

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	return parsePositive(query.Get(r, "start"), 1)
}

// ParseSize extracts the "size" query parameter, clamped to
// [1, MaxPageSize]. Returns def if not present or invalid.
func ParseSize(r *http.Request, def int) int {
	n := parsePositive(query.Get(r, "size"), def)
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func parsePositive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Skip converts a 1-based start into a Mongo skip value.
func Skip(start int) int64 {
	if start < 1 {
		return 0
	}
	return int64(start - 1)
}

// Result holds the prev/next indicators for a page.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims a slice fetched with LimitPlusOne down to PageSize and
// reports whether neighbouring pages exist.
func TrimPage[T any](rows *[]T, start int) Result {
	return trimPageWithSize(rows, start, PageSize)
}

func trimPageWithSize[T any](rows *[]T, start, pageSize int) Result {
	var res Result
	if len(*rows) > pageSize {
		*rows = (*rows)[:pageSize]
		res.HasNext = true
	}
	res.HasPrev = start > 1
	return res
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int // 1-based start index (0 if no results)
	End       int // 1-based end index (0 if no results)
	PrevStart int // start value for previous page link
	NextStart int // start value for next page link
}

// ComputeRange calculates display range values given the current start index
// and number of items shown.
func ComputeRange(start, shown int) Range {
	return computeRangeWithSize(start, shown, PageSize)
}

// ComputeRangeSized is like ComputeRange for a caller-chosen page size.
func ComputeRangeSized(start, shown, pageSize int) Range {
	return computeRangeWithSize(start, shown, pageSize)
}

func computeRangeWithSize(start, shown, pageSize int) Range {
	if shown == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}

	prevStart := start - pageSize
	if prevStart < 1 {
		prevStart = 1
	}

	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: prevStart,
		NextStart: start + shown,
	}
}
