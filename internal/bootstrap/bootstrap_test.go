package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// assetServer serves a minimal contents API with one picture and a catalog.
func assetServer(t *testing.T, name string, catalog string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/api/contents", func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]any{
			{"name": "DoroEndingPic", "path": "DoroEndingPic", "type": "dir"},
			{"name": "doroendings.json", "path": "doroendings.json", "type": "file"},
		}
		json.NewEncoder(w).Encode(items)
	})
	mux.HandleFunc("/api/contents/DoroEndingPic", func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]any{
			{
				"name": "00000001_Golden.jpg",
				"path": "DoroEndingPic/00000001_Golden.jpg",
				"type": "file",
			},
		}
		json.NewEncoder(w).Encode(items)
	})
	mux.HandleFunc("/raw/DoroEndingPic/00000001_Golden.jpg", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "image-bytes-from-%s", name)
	})
	mux.HandleFunc("/raw/doroendings.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, catalog)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func sourceFor(name string, server *httptest.Server) Source {
	return Source{
		Name:    name,
		APIBase: server.URL + "/api/contents",
		RawBase: server.URL + "/raw",
	}
}

const testCatalog = `{"datas":[{"id":1,"name":"Golden","english_name":"Golden End","pic":"x.jpg"}],"max_id":1,"total":1}`

func TestRunDownloadsAssets(t *testing.T) {
	server := assetServer(t, "primary", testCatalog)
	target := t.TempDir()

	var sawAuth bool
	authCheck := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "token secret" {
			sawAuth = true
		}
		server.Config.Handler.ServeHTTP(w, r)
	})
	wrapped := httptest.NewServer(authCheck)
	defer wrapped.Close()

	downloader, err := New(Options{
		Primary:   sourceFor("github", wrapped),
		TargetDir: target,
		Token:     "secret",
	}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result := downloader.Run(context.Background())
	if !result.Success {
		t.Fatalf("Run failed: %s", result.Message)
	}
	if result.Source != "github" {
		t.Errorf("source = %q, want github", result.Source)
	}
	if result.RecordCount != 1 {
		t.Errorf("record count = %d, want 1", result.RecordCount)
	}
	if !sawAuth {
		t.Error("token header not sent to primary")
	}

	pic := filepath.Join(target, "DoroEndingPic", "00000001_Golden.jpg")
	if _, err := os.Stat(pic); err != nil {
		t.Errorf("picture not downloaded: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(target, "doroendings.json"))
	if err != nil {
		t.Fatalf("catalog not downloaded: %v", err)
	}
	if string(data) != testCatalog {
		t.Errorf("catalog content = %q", data)
	}
}

func TestRunFallsBackToMirror(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer failing.Close()
	mirror := assetServer(t, "mirror", testCatalog)

	downloader, err := New(Options{
		Primary:   sourceFor("github", failing),
		Mirror:    sourceFor("gitee", mirror),
		TargetDir: t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result := downloader.Run(context.Background())
	if !result.Success {
		t.Fatalf("Run failed: %s", result.Message)
	}
	if result.Source != "gitee" {
		t.Errorf("source = %q, want gitee", result.Source)
	}
}

func TestRunReportsBothHostsDown(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	downloader, err := New(Options{
		Primary:   sourceFor("github", failing),
		Mirror:    sourceFor("gitee", failing),
		TargetDir: t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result := downloader.Run(context.Background())
	if result.Success {
		t.Fatal("expected failure when both hosts are down")
	}
	if !strings.Contains(result.Message, "unreachable") {
		t.Errorf("message = %q", result.Message)
	}
}

func TestRunSkipsExistingFiles(t *testing.T) {
	server := assetServer(t, "primary", testCatalog)
	target := t.TempDir()

	picDir := filepath.Join(target, "DoroEndingPic")
	if err := os.MkdirAll(picDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(picDir, "00000001_Golden.jpg")
	if err := os.WriteFile(existing, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	downloader, err := New(Options{
		Primary:   sourceFor("github", server),
		TargetDir: target,
	}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	result := downloader.Run(context.Background())
	if !result.Success {
		t.Fatalf("Run failed: %s", result.Message)
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4096 {
		t.Error("existing file was overwritten")
	}
	if downloader.skipped != 1 {
		t.Errorf("skipped = %d, want 1", downloader.skipped)
	}
}

func TestRunRejectsBadCatalogJSON(t *testing.T) {
	server := assetServer(t, "primary", "{not json")

	downloader, err := New(Options{
		Primary:   sourceFor("github", server),
		TargetDir: t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	result := downloader.Run(context.Background())
	if result.Success {
		t.Fatal("expected failure on malformed catalog")
	}
}

func TestGiteeSourceURLs(t *testing.T) {
	src := GiteeSource("seewhy_ran", "doroending_pic_assets")
	if src.APIBase != "https://gitee.com/api/v5/repos/seewhy_ran/doroending_pic_assets/contents" {
		t.Errorf("api base = %q", src.APIBase)
	}
	if src.RawBase != "https://gitee.com/seewhy_ran/doroending_pic_assets/raw/main" {
		t.Errorf("raw base = %q", src.RawBase)
	}
}
