package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// Page is a 1-based page-number window over an ordered listing.
type Page struct {
	Number int
	Size   int
}

// NormalizePage clamps user supplied values. A non-positive size falls back
// to defaultSize, or DefaultPageSize when that is unset as well.
func NormalizePage(number, size, defaultSize int) Page {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) TotalPages(total int) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}
