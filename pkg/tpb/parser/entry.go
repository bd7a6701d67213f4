// Package parser turns raw site listings into TorrentRecords.
//
// Decoding (splitting a body into raw entries) and parsing (normalising one
// entry) are separate steps: a body that cannot be decoded fails the whole
// call, an entry that cannot be parsed is reported and skipped.
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/gotpb/pkg/tpb/categories"
	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
	"github.com/amaumene/gotpb/pkg/tpb/models"
)

// RawEntry holds one listing exactly as text, before normalisation.
type RawEntry struct {
	ID       string
	Title    string
	InfoHash string
	Magnet   string
	Size     string
	Seeders  string
	Leechers string
	NumFiles string
	Uploader string
	Status   string
	Category string
	Added    string
	IMDB     string
}

// RawDetail is a single-torrent response.
type RawDetail struct {
	RawEntry
	Description  string
	Language     string
	TextLanguage string
}

// RawFile is one entry of a file listing.
type RawFile struct {
	Name string
	Size string
}

// Parser normalises raw entries against a category table.
type Parser struct {
	table *categories.Table
	now   func() time.Time
}

// New returns a Parser. A nil table means the embedded one; a nil clock
// means time.Now. The clock only matters for relative timestamps.
func New(table *categories.Table, now func() time.Time) *Parser {
	if table == nil {
		table = categories.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Parser{table: table, now: now}
}

// ParseEntry normalises one entry. index is its position in the response.
func (p *Parser) ParseEntry(index int, raw RawEntry) (models.TorrentRecord, *tpberrors.EntryParseFailure) {
	fail := func(kind, field, value string, cause error) (models.TorrentRecord, *tpberrors.EntryParseFailure) {
		return models.TorrentRecord{}, &tpberrors.EntryParseFailure{
			Index:   index,
			EntryID: strings.TrimSpace(raw.ID),
			Title:   strings.TrimSpace(raw.Title),
			Kind:    kind,
			Field:   field,
			Value:   value,
			Cause:   cause,
		}
	}

	size, err := ParseSize(raw.Size)
	if err != nil {
		return fail(tpberrors.FailureBadSize, "size", raw.Size, err)
	}

	var counts [3]int
	for i, c := range []struct{ field, value string }{
		{"seeders", raw.Seeders},
		{"leechers", raw.Leechers},
		{"num_files", raw.NumFiles},
	} {
		n, err := ParseCount(c.value)
		if err != nil {
			return fail(tpberrors.FailureBadCount, c.field, c.value, err)
		}
		counts[i] = n
	}

	hash, err := ExtractInfoHash(raw.InfoHash, raw.Magnet)
	if err != nil {
		value := raw.Magnet
		field := "magnet"
		if strings.TrimSpace(value) == "" {
			value, field = raw.InfoHash, "info_hash"
		}
		return fail(tpberrors.FailureMalformedHash, field, value, err)
	}

	id, _ := strconv.ParseUint(strings.TrimSpace(raw.ID), 10, 64)

	uploader := normalizeSpaces(raw.Uploader)
	if uploader == "" {
		uploader = models.AnonymousUploader
	}

	title := normalizeSpaces(raw.Title)
	magnet := strings.TrimSpace(raw.Magnet)
	if magnet == "" && hash != "" {
		magnet = models.BuildMagnet(hash, title, p.table.Trackers())
	}

	return models.TorrentRecord{
		ID:        id,
		Title:     title,
		InfoHash:  hash,
		MagnetURI: magnet,
		Size:      size,
		Seeders:   counts[0],
		Leechers:  counts[1],
		NumFiles:  counts[2],
		Uploader:  uploader,
		Status:    models.ParseUserStatus(raw.Status),
		Category:  p.category(raw.Category),
		Added:     ParseTimestamp(raw.Added, p.now()),
		IMDB:      strings.TrimSpace(raw.IMDB),
	}, nil
}

// ParseEntries keeps every entry that parses, in order, and reports the rest.
func (p *Parser) ParseEntries(raws []RawEntry) ([]models.TorrentRecord, []*tpberrors.EntryParseFailure) {
	records := make([]models.TorrentRecord, 0, len(raws))
	var failures []*tpberrors.EntryParseFailure
	for i, raw := range raws {
		record, failure := p.ParseEntry(i, raw)
		if failure != nil {
			failures = append(failures, failure)
			continue
		}
		records = append(records, record)
	}
	return records, failures
}

// ParseDetail normalises a single-torrent response. Unlike list entries a
// failure here is returned as the call's outcome.
func (p *Parser) ParseDetail(raw RawDetail) (models.TorrentDetail, *tpberrors.EntryParseFailure) {
	record, failure := p.ParseEntry(0, raw.RawEntry)
	if failure != nil {
		return models.TorrentDetail{}, failure
	}
	language, _ := strconv.Atoi(strings.TrimSpace(raw.Language))
	textLanguage, _ := strconv.Atoi(strings.TrimSpace(raw.TextLanguage))
	return models.TorrentDetail{
		TorrentRecord: record,
		Description:   strings.TrimSpace(raw.Description),
		Language:      language,
		TextLanguage:  textLanguage,
	}, nil
}

// ParseFiles normalises a file listing. Files with a bad size are reported
// the same way list entries are.
func (p *Parser) ParseFiles(raws []RawFile) ([]models.TorrentFile, []*tpberrors.EntryParseFailure) {
	files := make([]models.TorrentFile, 0, len(raws))
	var failures []*tpberrors.EntryParseFailure
	for i, raw := range raws {
		size, err := ParseSize(raw.Size)
		if err != nil {
			failures = append(failures, &tpberrors.EntryParseFailure{
				Index: i,
				Title: raw.Name,
				Kind:  tpberrors.FailureBadSize,
				Field: "size",
				Value: raw.Size,
				Cause: err,
			})
			continue
		}
		files = append(files, models.TorrentFile{Name: strings.TrimSpace(raw.Name), Size: size})
	}
	return files, failures
}

func (p *Parser) category(s string) categories.Category {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return categories.Unknown
	}
	return p.table.LookupByID(id)
}
