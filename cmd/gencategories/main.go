// Command gencategories regenerates pkg/tpb/categories/categories.json from
// the site's front-end script.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/gotpb/pkg/httputil"
	"github.com/amaumene/gotpb/pkg/logger"
	"github.com/amaumene/gotpb/pkg/tpb/categories"
)

const scriptPath = "/static/main.js"

var (
	categoryRegex = regexp.MustCompile(`category:(\d{3})[^>]*>([^<]+)<`)
	trackerRegex  = regexp.MustCompile(`encodeURIComponent\('(udp://[^']+)'`)
)

func main() {
	mirror := flag.String("mirror", "https://thepiratebay.org", "site to read "+scriptPath+" from")
	output := flag.String("o", "", "output file (default stdout)")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	source := strings.TrimRight(*mirror, "/") + scriptPath
	script, err := fetch(ctx, httputil.NewHTTPClient(*timeout), source)
	if err != nil {
		log.Fatalf("[Gen] %v", err)
	}

	f, err := scrape(script)
	if err != nil {
		log.Fatalf("[Gen] %v", err)
	}
	f.Version = time.Now().UTC().Format("2006.01.02")
	f.Source = source

	table, err := categories.FromFile(f)
	if err != nil {
		log.Fatalf("[Gen] scraped table is invalid: %v", err)
	}

	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		log.Fatalf("[Gen] %v", err)
	}
	data = append(data, '\n')

	if *output == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatalf("[Gen] failed to write %s: %v", *output, err)
	}
	log.Infof("[Gen] wrote %d categories and %d trackers to %s", table.Len(), len(f.Trackers), *output)
}

func fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return string(body), nil
}

// scrape pulls the category menu and tracker list out of the script.
// Codes are listed in order, each top-level code before its sub-categories.
func scrape(script string) (categories.File, error) {
	var f categories.File

	for _, m := range categoryRegex.FindAllStringSubmatch(script, -1) {
		code, _ := strconv.Atoi(m[1])
		name := strings.TrimSpace(m[2])

		if code%100 == 0 {
			f.Categories = append(f.Categories, categories.Group{Code: code, Name: name})
			continue
		}
		if len(f.Categories) == 0 {
			return f, fmt.Errorf("sub-category %d (%s) listed before any top-level category", code, name)
		}
		last := &f.Categories[len(f.Categories)-1]
		last.Subcategories = append(last.Subcategories, categories.Entry{Code: code, Name: name})
	}
	if len(f.Categories) == 0 {
		return f, fmt.Errorf("no categories found in script")
	}

	for _, m := range trackerRegex.FindAllStringSubmatch(script, -1) {
		f.Trackers = append(f.Trackers, m[1])
	}
	return f, nil
}
