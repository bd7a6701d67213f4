package sorter

import (
	"testing"
	"time"

	"github.com/amaumene/gotpb/pkg/tpb/categories"
	"github.com/amaumene/gotpb/pkg/tpb/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []models.TorrentRecord {
	return []models.TorrentRecord{
		{ID: 1, Title: "b", Size: 300, Seeders: 5, Uploader: "zed", Category: categories.LookupByID(207), Added: time.Unix(300, 0)},
		{ID: 2, Title: "A", Size: 100, Seeders: 9, Uploader: "amy", Category: categories.LookupByID(101), Added: time.Unix(100, 0)},
		{ID: 3, Title: "c", Size: 200, Seeders: 5, Uploader: "Bob", Category: categories.LookupByID(302), Added: time.Unix(200, 0)},
		{ID: 4, Title: "d", Size: 100, Seeders: 1, Uploader: "amy", Category: categories.LookupByID(101), Added: time.Unix(400, 0)},
	}
}

func ids(records []models.TorrentRecord) []uint64 {
	out := make([]uint64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSort(t *testing.T) {
	tests := []struct {
		sort     models.Sort
		expected []uint64
	}{
		{models.Sort{}, []uint64{1, 2, 3, 4}},
		{models.Sort{Field: models.SortSeeders}, []uint64{2, 1, 3, 4}},
		{models.Sort{Field: models.SortSeeders, Ascending: true}, []uint64{4, 1, 3, 2}},
		{models.Sort{Field: models.SortSize, Ascending: true}, []uint64{2, 4, 3, 1}},
		{models.Sort{Field: models.SortTitle, Ascending: true}, []uint64{2, 1, 3, 4}},
		{models.Sort{Field: models.SortAdded}, []uint64{4, 1, 3, 2}},
		{models.Sort{Field: models.SortUploader, Ascending: true}, []uint64{2, 4, 3, 1}},
		{models.Sort{Field: models.SortCategory, Ascending: true}, []uint64{2, 4, 1, 3}},
	}

	s := NewRecordSorter()
	for _, tt := range tests {
		t.Run(tt.sort.String(), func(t *testing.T) {
			records := sample()
			s.Sort(records, tt.sort)
			assert.Equal(t, tt.expected, ids(records))
		})
	}
}

func TestPage(t *testing.T) {
	s := NewRecordSorter()
	records := sample()

	assert.Equal(t, []uint64{1, 2}, ids(s.Page(records, 0, 2)))
	assert.Equal(t, []uint64{3, 4}, ids(s.Page(records, 1, 2)))
	assert.Equal(t, []uint64{4}, ids(s.Page(records, 1, 3)))
	assert.Empty(t, s.Page(records, 5, 2))
	assert.Len(t, s.Page(records, 0, 0), 4)
}

func TestConfidenceScoring(t *testing.T) {
	records := []models.TorrentRecord{
		{ID: 1, Title: "The Matrix"},
		{ID: 2, Title: "The.Matrix.1999.1080p.BluRay.x264-SPARKS"},
		{ID: 3, Title: "the matrix french dvdrip"},
		{ID: 4, Title: "The.Matrix.1999.2160p.UHD.BluRay.x265.10bit.HDR.DTS-HD.MA.5.1-SWTYBLZ"},
	}

	s := NewRecordSorter()
	sorted := s.SortByConfidence(records)
	require.Len(t, sorted, len(records))

	for i := 1; i < len(sorted); i++ {
		assert.GreaterOrEqual(t, sorted[i-1].ConfidenceScore, sorted[i].ConfidenceScore)
	}

	for _, line := range s.Describe(sorted) {
		t.Log(line)
	}
}

func TestFilterByMinConfidence(t *testing.T) {
	records := []models.TorrentRecord{
		{ID: 1, Title: "The.Matrix.1999.1080p.BluRay.x264-SPARKS"},
		{ID: 2, Title: "The Matrix"},
	}

	s := NewRecordSorter()
	assert.Len(t, s.FilterByMinConfidence(records, 0), 2)

	scored := s.ParseAndScore(records)
	threshold := scored[0].ConfidenceScore
	filtered := s.FilterByMinConfidence(records, threshold)
	require.NotEmpty(t, filtered)
	assert.Equal(t, uint64(1), filtered[0].ID)
	for _, r := range filtered {
		for _, sc := range scored {
			if sc.Record.ID == r.ID {
				assert.GreaterOrEqual(t, sc.ConfidenceScore, threshold)
			}
		}
	}
}
