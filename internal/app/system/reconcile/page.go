package reconcile

// DefaultPageSize is the history table page size.
const DefaultPageSize = 25

// PageResult is one window of a merged history.
type PageResult struct {
	Entries    []Entry
	Page       int // 1-based, after clamping
	PageSize   int
	Total      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	From, To   int // 1-based row numbers shown, 0 when empty
}

// Page slices entries into the requested page. The whole merged sequence is
// in memory; there is no server-side limit/offset. Out-of-range page
// numbers clamp to the first or last page.
func Page(entries []Entry, page, pageSize int) PageResult {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(entries)
	pages := (total + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	res := PageResult{
		Entries:    entries[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
	if end > start {
		res.From = start + 1
		res.To = end
	}
	return res
}
