package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/amaumene/gotpb/pkg/tpb/categories"
	"github.com/amaumene/gotpb/pkg/tpb/models"
)

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("search")
	cat := fs.Int("cat", 0, "category id (0 for all)")
	sortField := fs.String("sort", "", "sort field: title, added, size, seeders, leechers, uploader, category")
	asc := fs.Bool("asc", false, "sort ascending")
	page := fs.Int("page", 0, "zero-based page")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// no text browses the category
	text := strings.Join(fs.Args(), " ")
	category, err := a.category(*cat)
	if err != nil {
		return err
	}
	field, err := models.ParseSortField(*sortField)
	if err != nil {
		return err
	}
	if *page < 0 {
		return fmt.Errorf("page must not be negative, got %d", *page)
	}

	result, err := a.client.Search(ctx, models.SearchQuery{
		Text:     text,
		Category: category,
		Sort:     models.Sort{Field: field, Ascending: *asc},
		Page:     *page,
	})
	if err != nil {
		return err
	}

	if *asJSON {
		return a.printJSON(result)
	}
	a.printFailures(result.Failures)
	return a.printRecords(result.Records)
}

func runTop100(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("top100")
	cat := fs.Int("cat", 0, "category id (0 for all)")
	last48h := fs.Bool("48h", false, "only the last 48 hours")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	category, err := a.category(*cat)
	if err != nil {
		return err
	}

	result, err := a.client.Top100(ctx, category, *last48h)
	if err != nil {
		return err
	}

	if *asJSON {
		return a.printJSON(result)
	}
	a.printFailures(result.Failures)
	return a.printRecords(result.Records)
}

func runTorrent(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("torrent")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args())
	if err != nil {
		return err
	}

	detail, err := a.client.Torrent(ctx, id)
	if err != nil {
		return err
	}

	if *asJSON {
		return a.printJSON(detail)
	}
	return a.printDetail(detail)
}

func runFiles(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("files")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args())
	if err != nil {
		return err
	}

	list, err := a.client.Files(ctx, id)
	if err != nil {
		return err
	}

	if *asJSON {
		return a.printJSON(list)
	}
	a.printFailures(list.Failures)
	return a.printFiles(list.Files)
}

func runCategories(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("categories")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *asJSON {
		return a.printJSON(a.client.Categories())
	}
	return a.printCategories(a.client.Categories())
}

// category resolves a -cat flag; 0 means every category.
func (a *app) category(id int) (categories.Category, error) {
	if id == 0 {
		return categories.Unknown, nil
	}
	category := a.client.CategoryTable().LookupByID(id)
	if !category.IsKnown() {
		return categories.Unknown, fmt.Errorf("unknown category %d, see 'gotpb categories'", id)
	}
	return category, nil
}

func parseID(args []string) (uint64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one torrent id")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("torrent id must be a positive integer, got %q", args[0])
	}
	return id, nil
}
