package sorter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/amaumene/gotpb/pkg/tpb/models"
	"github.com/cehbz/torrentname"
)

// Scored pairs a record with its parsed release name.
type Scored struct {
	Record          models.TorrentRecord
	ParsedInfo      *torrentname.TorrentInfo
	ConfidenceScore float64
}

type RecordSorter struct{}

func NewRecordSorter() *RecordSorter {
	return &RecordSorter{}
}

// Sort orders records by the requested field. The sort is stable so that
// ties keep the site's order; a zero Sort leaves the slice untouched.
func (rs *RecordSorter) Sort(records []models.TorrentRecord, sort models.Sort) {
	if !sort.IsSet() {
		return
	}
	compare := comparator(sort.Field)
	slices.SortStableFunc(records, func(a, b models.TorrentRecord) int {
		if sort.Ascending {
			return compare(a, b)
		}
		return compare(b, a)
	})
}

func comparator(field models.SortField) func(a, b models.TorrentRecord) int {
	switch field {
	case models.SortTitle:
		return func(a, b models.TorrentRecord) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case models.SortAdded:
		return func(a, b models.TorrentRecord) int { return a.Added.Compare(b.Added) }
	case models.SortSize:
		return func(a, b models.TorrentRecord) int { return cmp.Compare(a.Size, b.Size) }
	case models.SortSeeders:
		return func(a, b models.TorrentRecord) int { return cmp.Compare(a.Seeders, b.Seeders) }
	case models.SortLeechers:
		return func(a, b models.TorrentRecord) int { return cmp.Compare(a.Leechers, b.Leechers) }
	case models.SortUploader:
		return func(a, b models.TorrentRecord) int {
			return cmp.Compare(strings.ToLower(a.Uploader), strings.ToLower(b.Uploader))
		}
	case models.SortCategory:
		return func(a, b models.TorrentRecord) int { return cmp.Compare(a.Category.ID, b.Category.ID) }
	default:
		return func(a, b models.TorrentRecord) int { return 0 }
	}
}

// Page returns the zero-based page of the given size. Pages past the end
// are empty, not an error.
func (rs *RecordSorter) Page(records []models.TorrentRecord, page, size int) []models.TorrentRecord {
	if size <= 0 || page < 0 {
		return records
	}
	start := page * size
	if start >= len(records) {
		return []models.TorrentRecord{}
	}
	end := min(start+size, len(records))
	return records[start:end]
}

func (rs *RecordSorter) ParseAndScore(records []models.TorrentRecord) []Scored {
	scored := make([]Scored, len(records))
	for i, record := range records {
		scored[i].Record = record
		parsed := record.Release()
		if parsed == nil {
			continue
		}
		scored[i].ParsedInfo = parsed
		scored[i].ConfidenceScore = float64(parsed.Confidence)
	}
	return scored
}

func (rs *RecordSorter) SortByConfidence(records []models.TorrentRecord) []Scored {
	scored := rs.ParseAndScore(records)
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(b.ConfidenceScore, a.ConfidenceScore)
	})
	return scored
}

// FilterByMinConfidence keeps records whose title parses as a release with
// at least the given confidence, in their original order.
func (rs *RecordSorter) FilterByMinConfidence(records []models.TorrentRecord, minConfidence float64) []models.TorrentRecord {
	if minConfidence <= 0 {
		return records
	}
	filtered := make([]models.TorrentRecord, 0, len(records))
	for _, s := range rs.ParseAndScore(records) {
		if s.ConfidenceScore >= minConfidence {
			filtered = append(filtered, s.Record)
		}
	}
	return filtered
}

// Describe formats scored records for debug output.
func (rs *RecordSorter) Describe(scored []Scored) []string {
	var lines []string
	for i, s := range scored {
		var details string
		if s.ParsedInfo != nil {
			details = fmt.Sprintf(" [%s, %d, %s, %s, %s]",
				s.ParsedInfo.Title,
				s.ParsedInfo.Year,
				s.ParsedInfo.Resolution,
				s.ParsedInfo.Source,
				s.ParsedInfo.Codec)
		}
		lines = append(lines, fmt.Sprintf("%d. %.0f%% - %s%s", i+1, s.ConfidenceScore, s.Record.Title, details))
	}
	return lines
}
