package parser

import (
	"testing"
	"time"

	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"1.0 GiB", 1073741824},
		{"512 MiB", 536870912},
		{"0 B", 0},
		{"1 KiB", 1024},
		{"2 TiB", 2 << 40},
		{"1.5 kib", 1536},
		{"700.12 MiB", 734129029},
		{"700.12&nbsp;MiB", 734129029},
		{"734130422", 734130422},
		{" 42 ", 42},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseSizeErrors(t *testing.T) {
	tests := []struct {
		input string
		cause error
	}{
		{"5 XB", tpberrors.ErrUnknownSizeUnit},
		{"3 GB", tpberrors.ErrUnknownSizeUnit},
		{"", tpberrors.ErrMalformedSize},
		{"GiB", tpberrors.ErrMalformedSize},
		{"1.2.3 MiB", tpberrors.ErrMalformedSize},
		{"-5 MiB", tpberrors.ErrMalformedSize},
		{"1.5", tpberrors.ErrMalformedSize},
		{"9000000 TiB", tpberrors.ErrMalformedSize},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseSize(tt.input)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount("17")
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	n, err = ParseCount("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ParseCount("-3")
	assert.ErrorIs(t, err, tpberrors.ErrNegativeCount)

	_, err = ParseCount("many")
	assert.ErrorIs(t, err, tpberrors.ErrNonNumericCount)
}

func TestNormalizeInfoHash(t *testing.T) {
	const hexHash = "0123456789abcdef0123456789abcdef01234567"

	got, err := NormalizeInfoHash("0123456789ABCDEF0123456789ABCDEF01234567")
	require.NoError(t, err)
	assert.Equal(t, hexHash, got)

	got, err = NormalizeInfoHash("AERUKZ4JVPG66AJDIVTYTK6N54ASGRLH")
	require.NoError(t, err)
	assert.Equal(t, hexHash, got)

	got, err = NormalizeInfoHash("0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NormalizeInfoHash("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NormalizeInfoHash("not-a-hash")
	assert.ErrorIs(t, err, tpberrors.ErrMalformedHash)
}

func TestExtractInfoHash(t *testing.T) {
	const hexHash = "0123456789abcdef0123456789abcdef01234567"

	tests := []struct {
		name      string
		hashField string
		magnet    string
		expected  string
		wantErr   bool
	}{
		{"bare hash", hexHash, "", hexHash, false},
		{"magnet wins", "ffffffffffffffffffffffffffffffffffffffff", "magnet:?xt=urn:btih:" + hexHash + "&dn=x", hexHash, false},
		{"magnet base32", "", "magnet:?dn=x&xt=urn:btih:AERUKZ4JVPG66AJDIVTYTK6N54ASGRLH", hexHash, false},
		{"magnet upper-case urn", "", "magnet:?xt=URN:BTIH:" + hexHash, hexHash, false},
		{"no hash at all", "", "", "", false},
		{"magnet without btih", "", "magnet:?dn=something", "", true},
		{"magnet with short btih", "", "magnet:?xt=urn:btih:abc", "", true},
		{"not a magnet", "", "http://example.com/file.torrent", "", true},
		{"bad bare hash", "xyz", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractInfoHash(tt.hashField, tt.magnet)
			if tt.wantErr {
				assert.ErrorIs(t, err, tpberrors.ErrMalformedHash)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"1427932800", time.Date(2015, 4, 2, 0, 0, 0, 0, time.UTC)},
		{"2023-11-05 08:15:00", time.Date(2023, 11, 5, 8, 15, 0, 0, time.UTC)},
		{"2023-11-05T08:15:00Z", time.Date(2023, 11, 5, 8, 15, 0, 0, time.UTC)},
		{"04-02 2015", time.Date(2015, 4, 2, 0, 0, 0, 0, time.UTC)},
		{"02-14 09:45", time.Date(2024, 2, 14, 9, 45, 0, 0, time.UTC)},
		{"12-24 20:00", time.Date(2023, 12, 24, 20, 0, 0, 0, time.UTC)},
		{"Today 10:05", time.Date(2024, 3, 10, 10, 5, 0, 0, time.UTC)},
		{"Y-day 23:59", time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)},
		{"5 mins ago", now.Add(-5 * time.Minute)},
		{"1 min ago", now.Add(-time.Minute)},
		{"", time.Time{}},
		{"0", time.Time{}},
		{"last tuesday", time.Time{}},
		{"13-45 2015", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(ParseTimestamp(tt.input, now)), "got %v", ParseTimestamp(tt.input, now))
		})
	}
}
