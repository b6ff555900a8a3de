package pagination

const (
	// DefaultPage is used when no page is provided.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page echoes pagination state back to API clients.
type Page struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Normalize enforces the configured defaults and maximum limit.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NewPage builds the response metadata for a listing of total rows.
func NewPage(params Params, total int64) Page {
	n := params.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Page{
		Page:  n.Page,
		Limit: n.Limit,
		Total: total,
		Pages: pages,
	}
}
