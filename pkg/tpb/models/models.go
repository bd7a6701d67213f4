// Package models defines the records, queries and request shapes of the client.
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/gotpb/pkg/tpb/categories"
	"github.com/cehbz/torrentname"
)

// AnonymousUploader is used when a listing does not name its uploader.
const AnonymousUploader = "Anonymous"

// UserStatus is the trust level the site gives an uploader.
type UserStatus string

const (
	StatusNone      UserStatus = ""
	StatusMember    UserStatus = "member"
	StatusTrusted   UserStatus = "trusted"
	StatusHelper    UserStatus = "helper"
	StatusVIP       UserStatus = "vip"
	StatusModerator UserStatus = "moderator"
	StatusSuperMod  UserStatus = "supermod"
	StatusAdmin     UserStatus = "admin"
)

var knownStatuses = map[string]UserStatus{
	"member":    StatusMember,
	"trusted":   StatusTrusted,
	"helper":    StatusHelper,
	"vip":       StatusVIP,
	"moderator": StatusModerator,
	"supermod":  StatusSuperMod,
	"super mod": StatusSuperMod,
	"admin":     StatusAdmin,
}

// ParseUserStatus maps the site's wording to a status; unknown values give StatusNone.
func ParseUserStatus(s string) UserStatus {
	return knownStatuses[strings.ToLower(strings.TrimSpace(s))]
}

// TorrentRecord is one normalised search result.
type TorrentRecord struct {
	ID        uint64              `json:"id"`
	Title     string              `json:"title"`
	InfoHash  string              `json:"info_hash,omitempty"`
	MagnetURI string              `json:"magnet_uri,omitempty"`
	Size      int64               `json:"size"`
	Seeders   int                 `json:"seeders"`
	Leechers  int                 `json:"leechers"`
	NumFiles  int                 `json:"num_files"`
	Uploader  string              `json:"uploader"`
	Status    UserStatus          `json:"status,omitempty"`
	Category  categories.Category `json:"category"`
	Added     time.Time           `json:"added"`
	IMDB      string              `json:"imdb,omitempty"`
}

// HasInfoHash reports whether the listing carried a usable hash.
// Some listings omit it; callers must treat the hash as optional.
func (r TorrentRecord) HasInfoHash() bool {
	return r.InfoHash != ""
}

// HasAdded reports whether the upload time could be parsed.
func (r TorrentRecord) HasAdded() bool {
	return !r.Added.IsZero()
}

// Magnet returns MagnetURI, which the parser fills with the trackers of its
// category table. Records built by hand fall back to the embedded trackers.
// It is empty when there is no hash.
func (r TorrentRecord) Magnet() string {
	if r.MagnetURI != "" {
		return r.MagnetURI
	}
	if r.InfoHash == "" {
		return ""
	}
	return BuildMagnet(r.InfoHash, r.Title, categories.Trackers())
}

// Release parses the title as a scene release name.
func (r TorrentRecord) Release() *torrentname.TorrentInfo {
	return torrentname.Parse(r.Title)
}

// BuildMagnet formats a magnet URI. The hash is not escaped so that the
// urn keeps its colons.
func BuildMagnet(hash, name string, trackers []string) string {
	var b strings.Builder
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(hash)
	if name != "" {
		b.WriteString("&dn=")
		b.WriteString(url.QueryEscape(name))
	}
	for _, tr := range trackers {
		b.WriteString("&tr=")
		b.WriteString(url.QueryEscape(tr))
	}
	return b.String()
}

// TorrentDetail is the full record returned for a single torrent.
type TorrentDetail struct {
	TorrentRecord
	Description  string `json:"description"`
	Language     int    `json:"language,omitempty"`
	TextLanguage int    `json:"text_language,omitempty"`
}

// TorrentFile is one file inside a torrent.
type TorrentFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// SortField names a column results can be ordered by.
type SortField string

const (
	SortNone     SortField = ""
	SortTitle    SortField = "title"
	SortAdded    SortField = "added"
	SortSize     SortField = "size"
	SortSeeders  SortField = "seeders"
	SortLeechers SortField = "leechers"
	SortUploader SortField = "uploader"
	SortCategory SortField = "category"
)

var sortFields = []SortField{SortTitle, SortAdded, SortSize, SortSeeders, SortLeechers, SortUploader, SortCategory}

// ParseSortField accepts the names above, case-insensitively.
func ParseSortField(s string) (SortField, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortNone, nil
	}
	for _, f := range sortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return SortNone, fmt.Errorf("unknown sort field %q", s)
}

// Sort is an optional ordering. The zero value keeps the site's order.
type Sort struct {
	Field     SortField `json:"field,omitempty"`
	Ascending bool      `json:"ascending,omitempty"`
}

// IsSet reports whether an ordering was requested.
func (s Sort) IsSet() bool {
	return s.Field != SortNone
}

func (s Sort) String() string {
	if !s.IsSet() {
		return "default"
	}
	if s.Ascending {
		return string(s.Field) + ":asc"
	}
	return string(s.Field) + ":desc"
}

// SearchQuery is built by the caller and not modified once handed to a client.
type SearchQuery struct {
	Text string
	// Category filters results; the zero value (or Unknown) means no filter.
	Category categories.Category
	Sort     Sort
	// Page is zero-based.
	Page int
}

// HasCategory reports whether the query filters on a known category.
func (q SearchQuery) HasCategory() bool {
	return q.Category.IsKnown()
}

// Format is the body type a request is expected to return.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Param is one query-string pair. Params keep their order.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RequestSpec describes an outbound request independently of the host.
type RequestSpec struct {
	Method string  `json:"method"`
	Path   string  `json:"path"`
	Params []Param `json:"params,omitempty"`
	Format Format  `json:"format"`
	// Sort and Page as requested; applied locally when the site cannot.
	Sort Sort `json:"sort"`
	Page int  `json:"page"`
}

// Encode renders Params as a query string, in order.
func (r RequestSpec) Encode() string {
	parts := make([]string, 0, len(r.Params))
	for _, p := range r.Params {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// URL joins the request with a base URL such as "https://apibay.org".
func (r RequestSpec) URL(base string) string {
	u := strings.TrimRight(base, "/") + r.Path
	if q := r.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// Key identifies the request shape, for caller-side caching.
func (r RequestSpec) Key() string {
	return fmt.Sprintf("%s %s?%s [%s] sort=%s page=%d", r.Method, r.Path, r.Encode(), r.Format, r.Sort, r.Page)
}
