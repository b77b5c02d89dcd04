package pkg

import (
	"errors"
	"strconv"
)

// PostsPerPage is shared by every feed.
const PostsPerPage = 10

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Total       int64 `json:"total"`
	Size        int   `json:"size"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NumPages never returns less than 1: an empty listing still has one empty page.
func NumPages(total int64, size int) int {
	if size <= 0 {
		size = 1
	}
	if total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// ResolvePage turns a raw ?page= value into a valid 1-based page number.
// Missing or non-numeric values give the first page, numeric values outside
// [1, numPages] give the last page, including ones too large for an int.
func ResolvePage(raw string, total int64, size int) int {
	last := NumPages(total, size)
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return last
	}
	if err != nil {
		return 1
	}
	if n < 1 || n > last {
		return last
	}
	return n
}

// Offset of the first item on page number.
func Offset(number, size int) int {
	return (number - 1) * size
}

func NewPage[T any](items []T, number int, total int64, size int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := NumPages(total, size)
	return &Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    pages,
		Total:       total,
		Size:        size,
		HasNext:     number < pages,
		HasPrevious: number > 1,
	}
}
