package paging

import (
	"net/http"
	"strconv"
)

// Pager is the view model of the shared "pager" template.
type Pager struct {
	HasPrev, HasNext bool
	PrevURL, NextURL string
	From, To, Total  int
}

// NewPager builds the pager for a start-based list. Prev/next links keep
// the request's other query parameters.
func NewPager(r *http.Request, start, shown int, total int64, res Result) Pager {
	rng := ComputeRange(start, shown)
	p := Pager{
		HasPrev: res.HasPrev,
		HasNext: res.HasNext,
		From:    rng.Start,
		To:      rng.End,
		Total:   int(total),
	}
	if p.HasPrev {
		p.PrevURL = withStart(r, rng.PrevStart)
	}
	if p.HasNext {
		p.NextURL = withStart(r, rng.NextStart)
	}
	return p
}

func withStart(r *http.Request, start int) string {
	q := r.URL.Query()
	q.Set("start", strconv.Itoa(start))
	return r.URL.Path + "?" + q.Encode()
}
