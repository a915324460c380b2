package calc

import "fmt"

type Footer struct {
	From       int    `json:"from"`
	To         int    `json:"to"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	HasPrev    bool   `json:"hasPrev"`
	HasNext    bool   `json:"hasNext"`
	Text       string `json:"text"`
}

// PageFooter describes the "Showing x to y of z" line and the prev/next controls.
func PageFooter(page, limit, total int) Footer {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := (total + limit - 1) / limit

	f := Footer{Total: total, Page: page, TotalPages: totalPages}
	if total > 0 {
		f.From = min((page-1)*limit+1, total)
		f.To = min(page*limit, total)
	}
	f.HasPrev = page > 1
	f.HasNext = page < totalPages
	f.Text = fmt.Sprintf("Showing %d to %d of %d", f.From, f.To, f.Total)
	return f
}
