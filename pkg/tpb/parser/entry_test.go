package parser

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/amaumene/gotpb/pkg/tpb/categories"
	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
	"github.com/amaumene/gotpb/pkg/tpb/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC) }

func validEntry(id string) RawEntry {
	return RawEntry{
		ID:       id,
		Title:    "Big Buck Bunny 1080p",
		InfoHash: "DD8255ECDC7CA55FB0BBF81323D87062DB1F6D1C",
		Size:     "276134947",
		Seeders:  "120",
		Leechers: "4",
		NumFiles: "3",
		Uploader: "blender",
		Status:   "vip",
		Category: "207",
		Added:    "1700000000",
		IMDB:     "tt1254207",
	}
}

func TestParseEntry(t *testing.T) {
	p := New(nil, fixedNow)

	record, failure := p.ParseEntry(0, validEntry("42"))
	require.Nil(t, failure)

	assert.Equal(t, uint64(42), record.ID)
	assert.Equal(t, "Big Buck Bunny 1080p", record.Title)
	assert.Equal(t, "dd8255ecdc7ca55fb0bbf81323d87062db1f6d1c", record.InfoHash)
	assert.Equal(t, int64(276134947), record.Size)
	assert.Equal(t, 120, record.Seeders)
	assert.Equal(t, 4, record.Leechers)
	assert.Equal(t, 3, record.NumFiles)
	assert.Equal(t, "blender", record.Uploader)
	assert.Equal(t, models.StatusVIP, record.Status)
	assert.Equal(t, 207, record.Category.ID)
	assert.Equal(t, "Video", record.Category.Top)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), record.Added)
	assert.Equal(t, "tt1254207", record.IMDB)
}

func TestParseEntryDefaults(t *testing.T) {
	p := New(nil, fixedNow)

	raw := validEntry("1")
	raw.Uploader = ""
	raw.InfoHash = "0000000000000000000000000000000000000000"
	raw.Category = "9999"
	raw.Added = "sometime"
	raw.Status = "pirate"

	record, failure := p.ParseEntry(0, raw)
	require.Nil(t, failure)

	assert.Equal(t, models.AnonymousUploader, record.Uploader)
	assert.False(t, record.HasInfoHash())
	assert.Empty(t, record.Magnet())
	assert.False(t, record.Category.IsKnown())
	assert.False(t, record.HasAdded())
	assert.Equal(t, models.StatusNone, record.Status)
}

func TestParseEntryFailures(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*RawEntry)
		kind  string
		field string
		cause error
	}{
		{"unknown size unit", func(r *RawEntry) { r.Size = "5 XB" }, tpberrors.FailureBadSize, "size", tpberrors.ErrUnknownSizeUnit},
		{"missing size", func(r *RawEntry) { r.Size = "" }, tpberrors.FailureBadSize, "size", tpberrors.ErrMalformedSize},
		{"negative seeders", func(r *RawEntry) { r.Seeders = "-3" }, tpberrors.FailureBadCount, "seeders", tpberrors.ErrNegativeCount},
		{"non-numeric leechers", func(r *RawEntry) { r.Leechers = "n/a" }, tpberrors.FailureBadCount, "leechers", tpberrors.ErrNonNumericCount},
		{"bad hash", func(r *RawEntry) { r.InfoHash = "1234" }, tpberrors.FailureMalformedHash, "info_hash", tpberrors.ErrMalformedHash},
		{"magnet without btih", func(r *RawEntry) { r.Magnet = "magnet:?dn=x" }, tpberrors.FailureMalformedHash, "magnet", tpberrors.ErrMalformedHash},
	}

	p := New(nil, fixedNow)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validEntry("7")
			tt.edit(&raw)

			_, failure := p.ParseEntry(3, raw)
			require.NotNil(t, failure)
			assert.Equal(t, 3, failure.Index)
			assert.Equal(t, "7", failure.EntryID)
			assert.Equal(t, tt.kind, failure.Kind)
			assert.Equal(t, tt.field, failure.Field)
			assert.ErrorIs(t, failure, tt.cause)
		})
	}
}

func TestParseEntryMagnetUsesTableTrackers(t *testing.T) {
	table, err := categories.Parse([]byte(`{"version":"test","categories":[{"code":200,"name":"Video","subcategories":[{"code":207,"name":"HD - Movies"}]}],"trackers":["udp://mirror.example:1337"]}`))
	require.NoError(t, err)
	p := New(table, fixedNow)

	record, failure := p.ParseEntry(0, validEntry("42"))
	require.Nil(t, failure)
	assert.Equal(t, "magnet:?xt=urn:btih:dd8255ecdc7ca55fb0bbf81323d87062db1f6d1c&dn=Big+Buck+Bunny+1080p&tr=udp%3A%2F%2Fmirror.example%3A1337", record.Magnet())
	assert.Equal(t, record.MagnetURI, record.Magnet())

	listed := validEntry("43")
	listed.Magnet = "magnet:?xt=urn:btih:DD8255ECDC7CA55FB0BBF81323D87062DB1F6D1C&tr=udp%3A%2F%2Fother"
	record, failure = p.ParseEntry(1, listed)
	require.Nil(t, failure)
	assert.Equal(t, listed.Magnet, record.Magnet())
}

func TestParseEntryFailureSurvivesJSON(t *testing.T) {
	p := New(nil, fixedNow)

	tests := []struct {
		name  string
		edit  func(*RawEntry)
		cause error
	}{
		{"unit", func(r *RawEntry) { r.Size = "5 XB" }, tpberrors.ErrUnknownSizeUnit},
		{"size", func(r *RawEntry) { r.Size = "1.5" }, tpberrors.ErrMalformedSize},
		{"negative", func(r *RawEntry) { r.Seeders = "-3" }, tpberrors.ErrNegativeCount},
		{"hash", func(r *RawEntry) { r.InfoHash = "1234" }, tpberrors.ErrMalformedHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validEntry("9")
			tt.edit(&raw)
			_, failure := p.ParseEntry(0, raw)
			require.NotNil(t, failure)
			require.ErrorIs(t, failure, tt.cause)

			data, err := json.Marshal(failure)
			require.NoError(t, err)

			var back tpberrors.EntryParseFailure
			require.NoError(t, json.Unmarshal(data, &back))
			assert.ErrorIs(t, &back, tt.cause)
			assert.Equal(t, failure.Error(), back.Error())
		})
	}
}

func TestParseEntriesKeepsGoing(t *testing.T) {
	p := New(nil, fixedNow)

	bad := validEntry("3")
	bad.Size = "5 XB"
	negative := validEntry("5")
	negative.Seeders = "-3"

	records, failures := p.ParseEntries([]RawEntry{
		validEntry("1"), validEntry("2"), bad, validEntry("4"), negative,
	})

	require.Len(t, records, 3)
	assert.Equal(t, uint64(1), records[0].ID)
	assert.Equal(t, uint64(2), records[1].ID)
	assert.Equal(t, uint64(4), records[2].ID)

	require.Len(t, failures, 2)
	assert.Equal(t, 2, failures[0].Index)
	assert.Equal(t, tpberrors.FailureBadSize, failures[0].Kind)
	assert.Equal(t, 4, failures[1].Index)
	assert.Equal(t, tpberrors.FailureBadCount, failures[1].Kind)
}

func TestParseDetail(t *testing.T) {
	p := New(nil, fixedNow)

	detail, failure := p.ParseDetail(RawDetail{
		RawEntry:     validEntry("42"),
		Description:  "  An open movie.  ",
		Language:     "1",
		TextLanguage: "",
	})
	require.Nil(t, failure)
	assert.Equal(t, uint64(42), detail.ID)
	assert.Equal(t, "An open movie.", detail.Description)
	assert.Equal(t, 1, detail.Language)
	assert.Equal(t, 0, detail.TextLanguage)
}

func TestParseFiles(t *testing.T) {
	p := New(nil, fixedNow)

	files, failures := p.ParseFiles([]RawFile{
		{Name: "movie.mkv", Size: "1073741824"},
		{Name: "broken.nfo", Size: "lots"},
		{Name: "sample.mkv", Size: "1048576"},
	})

	require.Len(t, files, 2)
	assert.Equal(t, models.TorrentFile{Name: "movie.mkv", Size: 1073741824}, files[0])
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.Equal(t, "broken.nfo", failures[0].Title)
}
