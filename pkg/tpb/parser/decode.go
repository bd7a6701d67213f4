package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amaumene/gotpb/pkg/tpb/models"
	"github.com/tidwall/gjson"
)

// Shape says whether a body matched a layout the decoder knows.
type Shape int

const (
	ShapeUnexpected Shape = iota
	ShapeKnown
)

func (s Shape) String() string {
	if s == ShapeKnown {
		return "known"
	}
	return "unexpected"
}

// Decoded is either a known shape with its entries or an unexpected shape
// with a reason. Entries is empty for an unexpected shape.
type Decoded struct {
	Shape   Shape
	Entries []RawEntry
	Reason  string
}

// Known wraps entries of a recognised body.
func Known(entries []RawEntry) Decoded {
	return Decoded{Shape: ShapeKnown, Entries: entries}
}

// Unexpected rejects a body.
func Unexpected(format string, args ...any) Decoded {
	return Decoded{Shape: ShapeUnexpected, Reason: fmt.Sprintf(format, args...)}
}

const (
	noResultsName   = "No results returned"
	noFilesName     = "Filelist not found"
	noHitsMarker    = "No hits"
	searchTableSel  = "table#searchResult"
	detailLinkSel   = "a.detLink"
	magnetLinkSel   = `a[href^="magnet:"]`
	descriptionSel  = "font.detDesc"
	minResultColumn = 3
)

var (
	browseHref  = regexp.MustCompile(`/browse/(\d+)`)
	torrentHref = regexp.MustCompile(`/torrent/(\d+)`)
	descRegex   = regexp.MustCompile(`(?i)uploaded\s+(.*?),\s*size\s+(.*?),\s*uled by\s*(.*)$`)
)

// Decode splits a body of the given format into raw entries.
func Decode(format models.Format, body []byte) Decoded {
	switch format {
	case models.FormatJSON:
		return DecodeJSON(body)
	case models.FormatHTML:
		return DecodeHTML(body)
	default:
		return Unexpected("unsupported format %q", format)
	}
}

// DecodeJSON accepts a top-level array of objects.
func DecodeJSON(body []byte) Decoded {
	if !gjson.ValidBytes(body) {
		return Unexpected("body is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return Unexpected("expected a JSON array, got %s", root.Type)
	}

	items := root.Array()
	entries := make([]RawEntry, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return Unexpected("element %d is %s, not an object", i, item.Type)
		}
		if !item.Get("id").Exists() || !item.Get("name").Exists() {
			return Unexpected("element %d has no id or name", i)
		}
		entries = append(entries, entryFromJSON(item))
	}

	if len(entries) == 1 && entries[0].ID == "0" && entries[0].Title == noResultsName {
		return Known(nil)
	}
	return Known(entries)
}

func entryFromJSON(v gjson.Result) RawEntry {
	return RawEntry{
		ID:       v.Get("id").String(),
		Title:    v.Get("name").String(),
		InfoHash: v.Get("info_hash").String(),
		Size:     v.Get("size").String(),
		Seeders:  v.Get("seeders").String(),
		Leechers: v.Get("leechers").String(),
		NumFiles: v.Get("num_files").String(),
		Uploader: v.Get("username").String(),
		Status:   v.Get("status").String(),
		Category: v.Get("category").String(),
		Added:    v.Get("added").String(),
		IMDB:     v.Get("imdb").String(),
	}
}

// DecodeDetail accepts the single object returned for one torrent.
// The API answers unknown ids with an object whose id is 0.
func DecodeDetail(body []byte) (RawDetail, bool, string) {
	if !gjson.ValidBytes(body) {
		return RawDetail{}, false, "body is not valid JSON"
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return RawDetail{}, false, fmt.Sprintf("expected a JSON object, got %s", root.Type)
	}
	if !root.Get("id").Exists() || !root.Get("name").Exists() {
		return RawDetail{}, false, "object has no id or name"
	}
	return RawDetail{
		RawEntry:     entryFromJSON(root),
		Description:  root.Get("descr").String(),
		Language:     root.Get("language").String(),
		TextLanguage: root.Get("textlanguage").String(),
	}, true, ""
}

// DecodeFiles accepts the file listing, where name and size are
// one-element arrays.
func DecodeFiles(body []byte) ([]RawFile, bool, string) {
	if !gjson.ValidBytes(body) {
		return nil, false, "body is not valid JSON"
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, false, fmt.Sprintf("expected a JSON array, got %s", root.Type)
	}

	var files []RawFile
	for i, item := range root.Array() {
		name, size := item.Get("name.0"), item.Get("size.0")
		if !item.IsObject() || !name.Exists() {
			return nil, false, fmt.Sprintf("element %d is not a file entry", i)
		}
		if name.String() == noFilesName {
			continue
		}
		files = append(files, RawFile{Name: name.String(), Size: size.String()})
	}
	return files, true, ""
}

// DecodeHTML reads the result table of a classic listing page.
func DecodeHTML(body []byte) Decoded {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Unexpected("parse HTML: %v", err)
	}

	table := doc.Find(searchTableSel).First()
	if table.Length() == 0 {
		if strings.Contains(doc.Text(), noHitsMarker) {
			return Known(nil)
		}
		return Unexpected("no %s in page", searchTableSel)
	}

	var entries []RawEntry
	dataRows := 0
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		// pagination rows span the table with a single cell
		if row.Find("th").Length() > 0 || cells.Length() < minResultColumn {
			return
		}
		dataRows++
		if row.Find(detailLinkSel).Length() == 0 {
			return
		}
		entries = append(entries, entryFromRow(row, cells))
	})

	if dataRows > 0 && len(entries) == 0 {
		return Unexpected("%d result rows without a %s", dataRows, detailLinkSel)
	}
	return Known(entries)
}

func entryFromRow(row, cells *goquery.Selection) RawEntry {
	var entry RawEntry

	cells.First().Find("a").Each(func(_ int, a *goquery.Selection) {
		if m := browseHref.FindStringSubmatch(a.AttrOr("href", "")); m != nil {
			entry.Category = m[1]
		}
	})

	link := row.Find(detailLinkSel).First()
	entry.Title = link.Text()
	if m := torrentHref.FindStringSubmatch(link.AttrOr("href", "")); m != nil {
		entry.ID = m[1]
	}

	entry.Magnet = row.Find(magnetLinkSel).First().AttrOr("href", "")

	desc := normalizeSpaces(row.Find(descriptionSel).First().Text())
	if m := descRegex.FindStringSubmatch(desc); m != nil {
		entry.Added = m[1]
		entry.Size = m[2]
		entry.Uploader = m[3]
	}

	row.Find("img").Each(func(_ int, img *goquery.Selection) {
		for _, attr := range []string{"title", "alt"} {
			if status := models.ParseUserStatus(img.AttrOr(attr, "")); status != models.StatusNone {
				entry.Status = string(status)
				return
			}
		}
	})

	n := cells.Length()
	entry.Seeders = cells.Eq(n - 2).Text()
	entry.Leechers = cells.Eq(n - 1).Text()
	return entry
}
