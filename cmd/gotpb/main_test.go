package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amaumene/gotpb/internal/cache"
	"github.com/amaumene/gotpb/internal/config"
	"github.com/amaumene/gotpb/internal/handlers"
	"github.com/amaumene/gotpb/pkg/logger"
	"github.com/amaumene/gotpb/pkg/ratelimiter"
	"github.com/amaumene/gotpb/pkg/tpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `[
	{"id":"7","name":"Big Buck Bunny 1080p","info_hash":"0123456789ABCDEF0123456789ABCDEF01234567","leechers":"2","seeders":"30","num_files":"1","size":"734003200","username":"blender","added":"1700000000","status":"vip","category":"207","imdb":""},
	{"id":"8","name":"Broken","info_hash":"0123456789ABCDEF0123456789ABCDEF01234567","leechers":"x","seeders":"1","num_files":"1","size":"10","username":"","added":"0","status":"","category":"207","imdb":""}
]`

func testApp(t *testing.T, handler http.HandlerFunc) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.BaseURL = server.URL
	var out, errOut bytes.Buffer
	return newApp(cfg, logger.Discard(), &out, &errOut), &out, &errOut
}

func TestRunUsage(t *testing.T) {
	var errOut bytes.Buffer
	assert.Equal(t, 2, run(nil, &errOut))
	assert.Contains(t, errOut.String(), "usage: gotpb")

	errOut.Reset()
	assert.Equal(t, 2, run([]string{"download"}, &errOut))
	assert.Contains(t, errOut.String(), `unknown command "download"`)
}

func TestRunSearch(t *testing.T) {
	var gotQuery string
	a, out, errOut := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(searchBody))
	})

	err := runSearch(context.Background(), a, []string{"-cat", "207", "-sort", "seeders", "big", "buck"})
	require.NoError(t, err)

	assert.Equal(t, "q=big+buck&cat=207", gotQuery)
	assert.Contains(t, out.String(), "Big Buck Bunny 1080p")
	assert.Contains(t, out.String(), "700.0 MiB")
	assert.Contains(t, out.String(), "HD - Movies")
	assert.NotContains(t, out.String(), "Broken")
	assert.Contains(t, errOut.String(), "BAD_COUNT")
}

func TestRunSearchJSON(t *testing.T) {
	a, out, _ := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchBody))
	})

	require.NoError(t, runSearch(context.Background(), a, []string{"-json", "bunny"}))
	assert.Contains(t, out.String(), `"info_hash": "0123456789abcdef0123456789abcdef01234567"`)
	assert.Contains(t, out.String(), `"failures"`)
}

func TestRunSearchRejectsBadInput(t *testing.T) {
	a, _, _ := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	ctx := context.Background()
	assert.Error(t, runSearch(ctx, a, []string{"-cat", "999", "x"}))
	assert.Error(t, runSearch(ctx, a, []string{"-sort", "popularity", "x"}))
	assert.Error(t, runSearch(ctx, a, []string{"-page", "-1", "x"}))
}

func TestRunSearchWithoutTextBrowses(t *testing.T) {
	var queries []string
	a, out, _ := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		w.Write([]byte(searchBody))
	})

	ctx := context.Background()
	require.NoError(t, runSearch(ctx, a, nil))
	require.NoError(t, runSearch(ctx, a, []string{"-cat", "201", "  "}))

	assert.Equal(t, []string{"q=top100%3Arecent&cat=", "q=category%3A201&cat=201"}, queries)
	assert.Contains(t, out.String(), "Big Buck Bunny 1080p")
}

func TestRunTop100(t *testing.T) {
	var gotPath string
	a, out, _ := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(searchBody))
	})

	require.NoError(t, runTop100(context.Background(), a, []string{"-cat", "207", "-48h"}))
	assert.Equal(t, "/precompiled/data_top100_48h_207.json", gotPath)
	assert.Contains(t, out.String(), "Big Buck Bunny 1080p")
}

func TestRunTorrent(t *testing.T) {
	a, out, _ := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":7,"name":"Big Buck Bunny","info_hash":"0123456789ABCDEF0123456789ABCDEF01234567",
			"leechers":2,"seeders":30,"num_files":1,"size":734003200,"username":"blender","added":1700000000,
			"status":"vip","category":207,"imdb":"","descr":"An open movie.","language":1,"textlanguage":1}`))
	})

	require.NoError(t, runTorrent(context.Background(), a, []string{"7"}))
	assert.Contains(t, out.String(), "Big Buck Bunny")
	assert.Contains(t, out.String(), "magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567")
	assert.Contains(t, out.String(), "An open movie.")

	assert.Error(t, runTorrent(context.Background(), a, []string{"seven"}))
	assert.Error(t, runTorrent(context.Background(), a, nil))
}

func TestRunFiles(t *testing.T) {
	a, out, _ := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":["movie.mkv"],"size":[734003200]},{"name":["readme.txt"],"size":[1024]}]`))
	})

	require.NoError(t, runFiles(context.Background(), a, []string{"7"}))
	assert.Contains(t, out.String(), "movie.mkv")
	assert.Contains(t, out.String(), "total (2 files)")
}

func TestRunCategories(t *testing.T) {
	a, out, _ := testApp(t, func(w http.ResponseWriter, r *http.Request) {})

	require.NoError(t, runCategories(context.Background(), a, nil))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, len(a.client.Categories()))
	assert.Contains(t, out.String(), "Video: HD - Movies")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "700.0 MiB", formatSize(734003200))
	assert.Equal(t, "1.50 GiB", formatSize(3*1024*1024*1024/2))
	assert.Equal(t, "0.0 MiB", formatSize(0))
}

func TestRouterRateLimit(t *testing.T) {
	client := tpb.New(tpb.WithBaseURL("http://127.0.0.1:1"))
	h := handlers.New(client, cache.New[*tpb.SearchResult](10, time.Minute), logger.Discard())
	router := newRouter(h, ratelimiter.NewTokenBucket(1, 1), "", logger.Discard())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRouterAPIKey(t *testing.T) {
	client := tpb.New(tpb.WithBaseURL("http://127.0.0.1:1"))
	h := handlers.New(client, cache.New[*tpb.SearchResult](10, time.Minute), logger.Discard())
	router := newRouter(h, ratelimiter.NewTokenBucket(10, 10), "secret-api-key", logger.Discard())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("X-API-Key", "secret-api-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogOutput(t *testing.T) {
	var console bytes.Buffer

	w, err := logOutput("", &console)
	require.NoError(t, err)
	assert.Same(t, &console, w)

	file := filepath.Join(t.TempDir(), "logs", "gotpb.log")
	w, err = logOutput(file, &console)
	require.NoError(t, err)

	log := logger.NewWithLevel("info", w, w)
	log.Infof("[App] hello")

	assert.Contains(t, console.String(), "[App] hello")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[App] hello")
}
