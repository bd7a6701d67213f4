// Package query builds outbound request descriptions from search queries.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/amaumene/gotpb/pkg/tpb/categories"
	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
	"github.com/amaumene/gotpb/pkg/tpb/models"
)

// Dialect is the request/response flavour of a site.
type Dialect string

const (
	// DialectAPIBay is the JSON API behind the current site.
	DialectAPIBay Dialect = "apibay"
	// DialectClassic is the HTML layout most mirrors still serve.
	DialectClassic Dialect = "classic"
)

// APIPageSize is the fixed number of results the JSON API returns.
const APIPageSize = 100

const (
	browseAllQuery = "top100:recent"
	defaultOrder   = 99
)

// ParseDialect accepts "apibay" or "classic", case-insensitively.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case DialectAPIBay, DialectClassic:
		return d, nil
	case "":
		return DialectAPIBay, nil
	default:
		return "", fmt.Errorf("unknown dialect %q", s)
	}
}

// classic order codes, descending first; ascending is code+1
var orderCodes = map[models.SortField]int{
	models.SortTitle:    1,
	models.SortAdded:    3,
	models.SortSize:     5,
	models.SortSeeders:  7,
	models.SortLeechers: 9,
	models.SortUploader: 11,
	models.SortCategory: 13,
}

// Builder turns queries into RequestSpecs for one dialect. It holds no
// state besides the dialect and is safe to share.
type Builder struct {
	dialect Dialect
}

// NewBuilder returns a Builder; an empty dialect means apibay.
func NewBuilder(dialect Dialect) *Builder {
	if dialect == "" {
		dialect = DialectAPIBay
	}
	return &Builder{dialect: dialect}
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Build never fails. Empty text means "browse all", optionally narrowed to
// the query's category. The same query always yields the same request.
func (b *Builder) Build(q models.SearchQuery) models.RequestSpec {
	text := strings.Join(strings.Fields(q.Text), " ")
	page := max(q.Page, 0)

	if b.dialect == DialectClassic {
		return b.buildClassic(text, q.Category, q.Sort, page)
	}
	return b.buildAPI(text, q.Category, q.Sort, page)
}

func (b *Builder) buildAPI(text string, category categories.Category, sort models.Sort, page int) models.RequestSpec {
	cat := ""
	if category.IsKnown() {
		cat = strconv.Itoa(category.ID)
	}

	if text == "" {
		text = browseAllQuery
		if cat != "" {
			text = "category:" + cat
		}
	}

	return models.RequestSpec{
		Method: "GET",
		Path:   "/q.php",
		Params: []models.Param{{Key: "q", Value: text}, {Key: "cat", Value: cat}},
		Format: models.FormatJSON,
		Sort:   sort,
		Page:   page,
	}
}

func (b *Builder) buildClassic(text string, category categories.Category, sort models.Sort, page int) models.RequestSpec {
	cat := 0
	if category.IsKnown() {
		cat = category.ID
	}
	order := OrderCode(sort)

	var path string
	switch {
	case text != "":
		path = fmt.Sprintf("/search/%s/%d/%d/%d", url.PathEscape(text), page, order, cat)
	case cat != 0:
		path = fmt.Sprintf("/browse/%d/%d/%d", cat, page, order)
	default:
		path = fmt.Sprintf("/recent/%d", page)
	}

	return models.RequestSpec{
		Method: "GET",
		Path:   path,
		Format: models.FormatHTML,
		Sort:   sort,
		Page:   page,
	}
}

// OrderCode maps a sort to the classic site's numeric order parameter.
func OrderCode(sort models.Sort) int {
	code, ok := orderCodes[sort.Field]
	if !ok {
		return defaultOrder
	}
	if sort.Ascending {
		code++
	}
	return code
}

// BuildTop100 requests the most seeded torrents, overall or for a category,
// optionally restricted to the last 48 hours.
func (b *Builder) BuildTop100(category categories.Category, last48h bool) models.RequestSpec {
	cat := "all"
	if category.IsKnown() {
		cat = strconv.Itoa(category.ID)
	}

	if b.dialect == DialectClassic {
		if last48h {
			cat = "48h" + cat
		}
		return models.RequestSpec{Method: "GET", Path: "/top/" + cat, Format: models.FormatHTML}
	}

	name := "data_top100_" + cat
	if last48h {
		name = "data_top100_48h_" + cat
	}
	return models.RequestSpec{Method: "GET", Path: "/precompiled/" + name + ".json", Format: models.FormatJSON}
}

// BuildTorrent requests the detail of one torrent. Only the JSON API has it.
func (b *Builder) BuildTorrent(id uint64) (models.RequestSpec, error) {
	return b.buildByID("/t.php", "torrent detail", id)
}

// BuildFiles requests the file listing of one torrent. Only the JSON API has it.
func (b *Builder) BuildFiles(id uint64) (models.RequestSpec, error) {
	return b.buildByID("/f.php", "file listing", id)
}

func (b *Builder) buildByID(path, operation string, id uint64) (models.RequestSpec, error) {
	if b.dialect != DialectAPIBay {
		return models.RequestSpec{}, tpberrors.NewUnsupportedError(operation, string(b.dialect))
	}
	return models.RequestSpec{
		Method: "GET",
		Path:   path,
		Params: []models.Param{{Key: "id", Value: strconv.FormatUint(id, 10)}},
		Format: models.FormatJSON,
	}, nil
}
