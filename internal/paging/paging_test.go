package paging

import "testing"

func TestToServerPage(t *testing.T) {
	if got := ToServerPage(1); got != 0 {
		t.Errorf("ToServerPage(1) = %d, want 0", got)
	}
	if got := ToServerPage(5); got != 4 {
		t.Errorf("ToServerPage(5) = %d, want 4", got)
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{95, 10, 10},
		{100, 10, 10},
		{101, 10, 11},
		{25, 10, 3},
		{1, 20, 1},
		{0, 10, 1},
		{10, 0, 1},
		{-3, 10, 1},
	}
	for _, tt := range tests {
		if got := Count(tt.total, tt.size); got != tt.want {
			t.Errorf("Count(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		page, count, want int
	}{
		{0, 3, 1},
		{2, 3, 2},
		{9, 3, 3},
		{4, 0, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.page, tt.count); got != tt.want {
			t.Errorf("Clamp(%d, %d) = %d, want %d", tt.page, tt.count, got, tt.want)
		}
	}
}
