// Package pagination holds the per-session page state of the catalog and the
// pure transitions applied to it.
package pagination

import "math"

// MaxPage bounds jumps while the total is unknown.
const MaxPage = 100000

// Density is the grid geometry for one display mode.
type Density struct {
	PageSize int `json:"page_size"`
	Columns  int `json:"columns"`
}

// Layout pairs the small-screen and wide-screen densities.
type Layout struct {
	Mobile  Density
	Desktop Density
}

// DefaultLayout is 6 cards in one column on mobile, 12 in three columns otherwise.
var DefaultLayout = Layout{
	Mobile:  Density{PageSize: 6, Columns: 1},
	Desktop: Density{PageSize: 12, Columns: 3},
}

func (l Layout) For(mobile bool) Density {
	if mobile {
		return l.Mobile
	}
	return l.Desktop
}

// State is the session scoped pagination value. Page is 1-indexed.
// TotalPages is the best known upper bound, 0 while unknown.
type State struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
	Mobile     bool `json:"mobile"`
}

func NewState(mobile bool) State {
	return State{Page: 1, Mobile: mobile}
}

// Clamp returns page bounded to [1, max(1, totalPages)].
func Clamp(page, totalPages int) int {
	upper := totalPages
	if upper < 1 {
		upper = 1
	}
	if page < 1 {
		return 1
	}
	if page > upper {
		return upper
	}
	return page
}

// Advance moves one page forward, capped at TotalPages when it is known.
func Advance(s State) State {
	s.Page++
	if s.TotalPages > 0 {
		s.Page = Clamp(s.Page, s.TotalPages)
	}
	return s
}

// Retreat moves one page back, floored at 1.
func Retreat(s State) State {
	s.Page--
	if s.Page < 1 {
		s.Page = 1
	}
	return s
}

// Jump moves to page, clamped to TotalPages when it is known and to MaxPage
// otherwise.
func Jump(s State, page int) State {
	if s.TotalPages > 0 {
		s.Page = Clamp(page, s.TotalPages)
	} else {
		s.Page = Clamp(page, MaxPage)
	}
	return s
}

// StepBack is the overshoot correction: an empty page past the first one
// moves to the previous page. ok is false on page 1.
func StepBack(s State) (State, bool) {
	if s.Page <= 1 {
		s.Page = 1
		return s, false
	}
	s.Page--
	return s, true
}

// ComputeOffset returns the query offset of page. It saturates at
// math.MaxInt instead of overflowing.
func ComputeOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

// TotalPages is ceil(total/pageSize) with a floor of 1.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// OptimisticTotalPages lets the user go one page further when the current
// page came back full.
func OptimisticTotalPages(page, returned, pageSize int) int {
	if page < 1 {
		page = 1
	}
	if pageSize > 0 && returned >= pageSize {
		return page + 1
	}
	return page
}

// BestKnownTotalPages prefers the exact total when the backend reported one.
func BestKnownTotalPages(page, returned, pageSize int, total *int64) int {
	if total != nil {
		return TotalPages(*total, pageSize)
	}
	return OptimisticTotalPages(page, returned, pageSize)
}
