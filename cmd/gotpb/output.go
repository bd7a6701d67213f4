package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/amaumene/gotpb/internal/constants"
	"github.com/amaumene/gotpb/pkg/tpb/categories"
	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
	"github.com/amaumene/gotpb/pkg/tpb/models"
)

const timeLayout = "2006-01-02 15:04"

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printRecords(records []models.TorrentRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(a.out, "no results")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSIZE\tSE\tLE\tRES\tADDED\tUPLOADER\tCATEGORY")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.Title, formatSize(r.Size), r.Seeders, r.Leechers,
			resolution(r), formatAdded(r), r.Uploader, r.Category.Name())
	}
	return w.Flush()
}

func (a *app) printDetail(d *models.TorrentDetail) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Title:\t%s\n", d.Title)
	fmt.Fprintf(w, "ID:\t%d\n", d.ID)
	fmt.Fprintf(w, "Category:\t%s\n", d.Category.Name())
	fmt.Fprintf(w, "Size:\t%s\n", formatSize(d.Size))
	fmt.Fprintf(w, "Files:\t%d\n", d.NumFiles)
	fmt.Fprintf(w, "Seeders:\t%d\n", d.Seeders)
	fmt.Fprintf(w, "Leechers:\t%d\n", d.Leechers)
	fmt.Fprintf(w, "Uploaded:\t%s by %s\n", formatAdded(d.TorrentRecord), d.Uploader)
	if d.IMDB != "" {
		fmt.Fprintf(w, "IMDB:\t%s\n", d.IMDB)
	}
	if magnet := d.Magnet(); magnet != "" {
		fmt.Fprintf(w, "Magnet:\t%s\n", magnet)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if d.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", d.Description)
	}
	return nil
}

func (a *app) printFiles(files []models.TorrentFile) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	var total int64
	for _, f := range files {
		total += f.Size
		fmt.Fprintf(w, "%s\t  %s\n", formatSize(f.Size), f.Name)
	}
	fmt.Fprintf(w, "%s\t  total (%d files)\n", formatSize(total), len(files))
	return w.Flush()
}

func (a *app) printCategories(list []categories.Category) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, c := range list {
		fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name())
	}
	return w.Flush()
}

// printFailures reports skipped entries on stderr.
func (a *app) printFailures(failures []*tpberrors.EntryParseFailure) {
	for _, f := range failures {
		fmt.Fprintf(a.errOut, "skipped: %v\n", f)
	}
}

func formatSize(size int64) string {
	gib := float64(size) / constants.BytesToGiB
	if gib >= 1 {
		return fmt.Sprintf("%.2f GiB", gib)
	}
	return fmt.Sprintf("%.1f MiB", float64(size)/(1024*1024))
}

func formatAdded(r models.TorrentRecord) string {
	if !r.HasAdded() {
		return "-"
	}
	return r.Added.Format(timeLayout)
}

func resolution(r models.TorrentRecord) string {
	info := r.Release()
	if info == nil || info.Resolution == "" || info.Resolution == "?" {
		return "-"
	}
	return info.Resolution
}
