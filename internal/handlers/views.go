package handlers

import (
	"github.com/amaumene/gotpb/internal/constants"
	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
	"github.com/amaumene/gotpb/pkg/tpb/models"
)

type releaseView struct {
	Title      string `json:"title"`
	Year       int    `json:"year,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Source     string `json:"source,omitempty"`
	Codec      string `json:"codec,omitempty"`
	Season     int    `json:"season,omitempty"`
	Episode    int    `json:"episode,omitempty"`
	Confidence int    `json:"confidence"`
}

type recordView struct {
	models.TorrentRecord
	CategoryName string       `json:"category_name"`
	SizeGiB      float64      `json:"size_gib"`
	Magnet       string       `json:"magnet,omitempty"`
	Release      *releaseView `json:"release,omitempty"`
}

type failureView struct {
	Index   int    `json:"index"`
	EntryID string `json:"entry_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Kind    string `json:"kind"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Reason  string `json:"reason"`
}

type listResponse struct {
	Request  string        `json:"request"`
	Cached   bool          `json:"cached"`
	Count    int           `json:"count"`
	Records  []recordView  `json:"records"`
	Failures []failureView `json:"failures"`
}

func toRecordView(r models.TorrentRecord) recordView {
	view := recordView{
		TorrentRecord: r,
		CategoryName:  r.Category.Name(),
		SizeGiB:       float64(r.Size) / constants.BytesToGiB,
		Magnet:        r.Magnet(),
	}
	if info := r.Release(); info != nil {
		view.Release = &releaseView{
			Title:      info.Title,
			Year:       info.Year,
			Resolution: known(info.Resolution),
			Source:     known(info.Source),
			Codec:      known(info.Codec),
			Season:     info.Season,
			Episode:    info.Episode,
			Confidence: int(info.Confidence),
		}
	}
	return view
}

// known drops the parser's "?" placeholder.
func known(s string) string {
	if s == "?" {
		return ""
	}
	return s
}

func toRecordViews(records []models.TorrentRecord) []recordView {
	views := make([]recordView, 0, len(records))
	for _, r := range records {
		views = append(views, toRecordView(r))
	}
	return views
}

func toFailureViews(failures []*tpberrors.EntryParseFailure) []failureView {
	views := make([]failureView, 0, len(failures))
	for _, f := range failures {
		views = append(views, failureView{
			Index:   f.Index,
			EntryID: f.EntryID,
			Title:   f.Title,
			Kind:    f.Kind,
			Field:   f.Field,
			Value:   f.Value,
			Reason:  f.Reason(),
		})
	}
	return views
}
