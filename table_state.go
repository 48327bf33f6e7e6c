package main

import (
	"fmt"

	"tokenboard/ordering"
)

// TableState is the explicit sort/filter state the table is rendered with.
type TableState struct {
	Category Category           `json:"category"`
	SortBy   string             `json:"sortBy"`
	SortDir  ordering.Direction `json:"sortDir"`
}

func DefaultTableState() TableState {
	return TableState{
		Category: CategoryNew,
		SortBy:   "volume",
		SortDir:  ordering.Descending,
	}
}

// NextSort applies a header click on column.
//
// Per column the cycle is desc -> asc -> none -> desc. Switching to a
// different column always starts that column at desc. When the result is
// none the sort column is cleared.
func NextSort(s TableState, column string) TableState {
	next := ordering.Descending
	if s.SortBy == column {
		switch s.SortDir {
		case ordering.Descending:
			next = ordering.Ascending
		case ordering.Ascending:
			next = ordering.None
		}
	}
	s.SortDir = next
	s.SortBy = column
	if next == ordering.None {
		s.SortBy = ""
	}
	return s
}

// SortLabel is the aria-sort wording for column under s.
func SortLabel(s TableState, column string) string {
	if s.SortBy != column {
		return "none"
	}
	switch s.SortDir {
	case ordering.Ascending:
		return "ascending"
	case ordering.Descending:
		return "descending"
	}
	return "none"
}

// Announcement is the live-region text for a sort change.
func Announcement(s TableState) string {
	if s.SortBy == "" || s.SortDir == ordering.None {
		return "Sorting cleared"
	}
	return fmt.Sprintf("Sorted by %s, %s", s.SortBy, SortLabel(s, s.SortBy))
}
