package runtime

import (
	"slices"

	"github.com/aretw0/funnel/pkg/domain"
)

// Next returns the page that follows currentID, or domain.Complete when no visible page remains.
//
// An empty or unknown currentID scans from the first page. A jump is honored only when its
// target exists, is not the current page and has not been visited; the scan then starts at the
// target itself. Each page is inspected at most once.
func Next(pages []domain.Page, currentID string, hidden TargetSet, jump string, visited []string) string {
	start := 0
	if idx := pageIndex(pages, currentID); idx >= 0 {
		start = idx + 1
	}

	if jump != "" && jump != currentID && !slices.Contains(visited, jump) {
		if idx := pageIndex(pages, jump); idx >= 0 {
			start = idx
		}
	}

	for i := start; i < len(pages); i++ {
		if PageVisible(pages[i], hidden) {
			return pages[i].ID
		}
	}
	return domain.Complete
}

// Previous pops history until it finds a page that still exists and is visible.
// It returns the page, the history left below it, and ok=false when nothing is left.
func Previous(pages []domain.Page, history []string, hidden TargetSet) (string, []string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		idx := pageIndex(pages, history[i])
		if idx < 0 {
			continue
		}
		if PageVisible(pages[idx], hidden) {
			return history[i], history[:i:i], true
		}
	}
	return "", nil, false
}

// PageVisible reports whether a page should be shown: it is not hidden itself and,
// when it has blocks, at least one of them is visible.
func PageVisible(page domain.Page, hidden TargetSet) bool {
	if hidden.Has(page.ID) {
		return false
	}
	if len(page.Blocks) == 0 {
		return true
	}
	for _, b := range page.Blocks {
		if !hidden.Has(b.ID) {
			return true
		}
	}
	return false
}

// VisibleBlocks returns the blocks of page not present in hidden, in declared order.
func VisibleBlocks(page domain.Page, hidden TargetSet) []domain.Block {
	out := make([]domain.Block, 0, len(page.Blocks))
	for _, b := range page.Blocks {
		if !hidden.Has(b.ID) {
			out = append(out, b)
		}
	}
	return out
}

func pageIndex(pages []domain.Page, id string) int {
	if id == "" {
		return -1
	}
	for i, p := range pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}
