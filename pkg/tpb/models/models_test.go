package models

import (
	"strings"
	"testing"
	"time"

	"github.com/amaumene/gotpb/pkg/tpb/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagnet(t *testing.T) {
	r := TorrentRecord{Title: "Ubuntu 24.04 Desktop", InfoHash: "0123456789abcdef0123456789abcdef01234567"}

	magnet := r.Magnet()
	assert.True(t, strings.HasPrefix(magnet, "magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567&dn=Ubuntu+24.04+Desktop"))
	assert.Equal(t, len(categories.Trackers()), strings.Count(magnet, "&tr="))

	listed := TorrentRecord{InfoHash: "abc", MagnetURI: "magnet:?xt=urn:btih:abc"}
	assert.Equal(t, "magnet:?xt=urn:btih:abc", listed.Magnet())

	assert.Empty(t, TorrentRecord{Title: "no hash"}.Magnet())
}

func TestBuildMagnetEscapesTrackers(t *testing.T) {
	got := BuildMagnet("abc", "", []string{"udp://tracker.example:1337/announce"})
	assert.Equal(t, "magnet:?xt=urn:btih:abc&tr=udp%3A%2F%2Ftracker.example%3A1337%2Fannounce", got)
}

func TestRecordOptionalFields(t *testing.T) {
	r := TorrentRecord{}
	assert.False(t, r.HasInfoHash())
	assert.False(t, r.HasAdded())

	r.InfoHash = "abc"
	r.Added = time.Unix(1700000000, 0)
	assert.True(t, r.HasInfoHash())
	assert.True(t, r.HasAdded())
}

func TestRelease(t *testing.T) {
	r := TorrentRecord{Title: "The.Matrix.1999.1080p.BluRay.x264-SPARKS"}
	info := r.Release()
	require.NotNil(t, info)
	assert.Equal(t, 1999, info.Year)
}

func TestParseUserStatus(t *testing.T) {
	assert.Equal(t, StatusVIP, ParseUserStatus("VIP"))
	assert.Equal(t, StatusTrusted, ParseUserStatus(" trusted "))
	assert.Equal(t, StatusSuperMod, ParseUserStatus("Super Mod"))
	assert.Equal(t, StatusNone, ParseUserStatus("pirate"))
}

func TestParseSortField(t *testing.T) {
	f, err := ParseSortField("Seeders")
	require.NoError(t, err)
	assert.Equal(t, SortSeeders, f)

	f, err = ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, SortNone, f)

	_, err = ParseSortField("popularity")
	assert.Error(t, err)
}

func TestRequestSpecRendering(t *testing.T) {
	rs := RequestSpec{
		Method: "GET",
		Path:   "/q.php",
		Params: []Param{{Key: "q", Value: "big buck bunny"}, {Key: "cat", Value: ""}},
		Format: FormatJSON,
		Sort:   Sort{Field: SortSize, Ascending: true},
		Page:   1,
	}

	assert.Equal(t, "q=big+buck+bunny&cat=", rs.Encode())
	assert.Equal(t, "https://apibay.org/q.php?q=big+buck+bunny&cat=", rs.URL("https://apibay.org/"))
	assert.Equal(t, "GET /q.php?q=big+buck+bunny&cat= [json] sort=size:asc page=1", rs.Key())

	noParams := RequestSpec{Method: "GET", Path: "/recent/0", Format: FormatHTML}
	assert.Equal(t, "https://tpb.party/recent/0", noParams.URL("https://tpb.party"))
}

func TestSearchQueryHasCategory(t *testing.T) {
	assert.False(t, SearchQuery{}.HasCategory())
	assert.False(t, SearchQuery{Category: categories.Unknown}.HasCategory())
	assert.True(t, SearchQuery{Category: categories.LookupByID(201)}.HasCategory())
}
