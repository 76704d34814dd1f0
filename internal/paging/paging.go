// Package paging converts between human page numbers and the Moira API's
// zero-based page index.
package paging

// ToServerPage maps a one-based page to the API's zero-based index.
func ToServerPage(human int) int {
	return human - 1
}

// Count returns the number of pages needed for total items, never less than one.
func Count(total, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Clamp keeps page inside [1, count].
func Clamp(page, count int) int {
	if count < 1 {
		count = 1
	}
	if page < 1 {
		return 1
	}
	if page > count {
		return count
	}
	return page
}
