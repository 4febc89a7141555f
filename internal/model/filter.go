package model

import (
	"strings"
	"time"
)

// Pagination bounds for list endpoints
const (
	DefaultPageLimit = 12
	MaxPageLimit     = 100
)

// Club list sort keys
const (
	ClubSortCreated = "created_on"
	ClubSortName    = "name"
)

// EventStatusAll disables the status filter on event lists
const EventStatusAll EventStatus = "all"

// ClubFilter selects active clubs for listing
type ClubFilter struct {
	Category   string
	Department string
	Search     string
	Sort       string
	Ascending  bool
	Page       int
	Limit      int
}

// Normalize applies defaults and clamps pagination
func (f *ClubFilter) Normalize() {
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	if f.Sort != ClubSortName {
		f.Sort = ClubSortCreated
	}
	f.Page, f.Limit = clampPage(f.Page, f.Limit)
}

// Offset is the number of rows skipped before the current page
func (f ClubFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// EventFilter selects events for listing
type EventFilter struct {
	ClubID       string
	Category     string
	Status       EventStatus
	Statuses     []EventStatus
	UpcomingOnly bool
	From         time.Time
	Search       string
	Page         int
	Limit        int
}

// Normalize applies defaults and clamps pagination. An empty status means published.
func (f *EventFilter) Normalize() {
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	if len(f.Statuses) == 0 {
		switch f.Status {
		case "":
			f.Statuses = []EventStatus{EventStatusPublished}
		case EventStatusAll:
		default:
			f.Statuses = []EventStatus{f.Status}
		}
	}
	f.Page, f.Limit = clampPage(f.Page, f.Limit)
}

// Offset is the number of rows skipped before the current page
func (f EventFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Page is one page of a listing
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPage fills in the page arithmetic
func NewPage[T any](items []T, total, page, limit int) Page[T] {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// HasMore returns true if a later page exists
func (p Page[T]) HasMore() bool {
	return p.Page < p.TotalPages
}

// SearchText is the lower-cased text matched by list searches
func (c *Club) SearchText() string {
	parts := append([]string{c.Name, c.Description}, c.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// SearchText is the lower-cased text matched by list searches
func (e *Event) SearchText() string {
	parts := append([]string{e.Title, e.Description}, e.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
