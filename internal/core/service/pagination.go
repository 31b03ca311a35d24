package service

const (
	defaultPerPage = 50
	maxPerPage     = 50
)

// clampPage normalizes pagination parameters: page falls back to 1, perPage
// to 50, and perPage is capped at 50.
func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	return page, perPage
}
