package services

import (
	"sort"
	"strings"
	"time"

	"github.com/rpupo63/collage-backend/models"
)

// dateLayouts are tried in order when ordering posts by date
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006-01",
	"2006",
}

// unknownDate is the sort key of records without a usable date
var unknownDate = time.Unix(0, 0).UTC()

// ParsePostDate parses the date formats seen in stored records. Empty or
// unrecognized values sort as the Unix epoch.
func ParsePostDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return unknownDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return unknownDate
}

// SortNewestFirst orders summaries by date (falling back to created_at),
// newest first. Posts with equal or unparseable dates keep their order.
func SortNewestFirst(summaries []models.PostSummary) {
	keys := make([]time.Time, len(summaries))
	for i, s := range summaries {
		date := s.Date
		if date == "" {
			date = s.CreatedAt
		}
		keys[i] = ParsePostDate(date)
	}

	idx := make([]int, len(summaries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].After(keys[idx[b]])
	})

	sorted := make([]models.PostSummary, len(summaries))
	for i, j := range idx {
		sorted[i] = summaries[j]
	}
	copy(summaries, sorted)
}

// FilterVisible returns the visible summaries; the input is not modified.
func FilterVisible(summaries []models.PostSummary) []models.PostSummary {
	visible := make([]models.PostSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Visible {
			visible = append(visible, s)
		}
	}
	return visible
}
