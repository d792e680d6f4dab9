package ghrel

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(10*time.Second, "")
	c.SetBaseURL(srv.URL)
	return c, srv
}

func TestListReleases_SkipsDraftsAndPrereleases(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/charmbracelet/vhs/releases" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "1" {
			// Short first page ends the walk.
			t.Fatalf("unexpected page %q", r.URL.Query().Get("page"))
		}
		fmt.Fprint(w, `[
			{"tag_name": "v0.8.0-rc.1", "prerelease": true, "assets": []},
			{"tag_name": "v0.7.2", "draft": true, "assets": []},
			{"tag_name": "v0.7.1", "assets": [{"name": "vhs_0.7.1_Linux_x86_64.tar.gz", "browser_download_url": "http://x/a"}]}
		]`)
	}))

	var tags []string
	err := c.ListReleases(context.Background(), "charmbracelet", "vhs", func(rel Release) bool {
		tags = append(tags, rel.TagName)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 1 || tags[0] != "v0.7.1" {
		t.Fatalf("unexpected tags: %v", tags)
	}
}

func TestListReleases_Paginates(t *testing.T) {
	pages := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		page := r.URL.Query().Get("page")
		if page == "1" {
			// A full page forces a second request.
			fmt.Fprint(w, "[")
			for i := 0; i < releasesPerPage; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"tag_name": "v1.0.%d", "assets": []}`, i)
			}
			fmt.Fprint(w, "]")
			return
		}
		fmt.Fprint(w, `[{"tag_name": "v0.9.9", "assets": []}]`)
	}))

	var count int
	err := c.ListReleases(context.Background(), "o", "r", func(rel Release) bool {
		count++
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pages != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", pages)
	}
	if count != releasesPerPage+1 {
		t.Fatalf("expected %d releases, got %d", releasesPerPage+1, count)
	}
}

func TestListReleases_StopsWhenFnReturnsFalse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"tag_name": "v2.0.0", "assets": []}, {"tag_name": "v1.0.0", "assets": []}]`)
	}))

	var seen []string
	err := c.ListReleases(context.Background(), "o", "r", func(rel Release) bool {
		seen = append(seen, rel.TagName)
		return false
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 || seen[0] != "v2.0.0" {
		t.Fatalf("unexpected releases seen: %v", seen)
	}
}

func TestListReleases_APIError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "API rate limit exceeded"}`, http.StatusForbidden)
	}))

	err := c.ListReleases(context.Background(), "o", "r", func(Release) bool { return true })
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("error should carry the response body, got: %v", err)
	}
}

func TestFindAsset(t *testing.T) {
	rel := Release{Assets: []Asset{
		{Name: "vhs_0.7.1_Linux_arm64.tar.gz"},
		{Name: "vhs_0.7.1_Linux_x86_64.tar.gz"},
	}}

	a, ok := FindAsset(rel, func(name string) bool {
		return strings.HasSuffix(name, "Linux_x86_64.tar.gz")
	})
	if !ok || a.Name != "vhs_0.7.1_Linux_x86_64.tar.gz" {
		t.Fatalf("unexpected asset: %+v ok=%v", a, ok)
	}

	_, ok = FindAsset(rel, func(name string) bool { return false })
	if ok {
		t.Fatalf("expected no asset")
	}
}

func TestDownloadToWriter_Progress(t *testing.T) {
	payload := strings.Repeat("x", 1000)
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		fmt.Fprint(w, payload)
	}))

	var sb strings.Builder
	var lastDone, lastTotal int64
	calls := 0
	err := c.DownloadToWriter(context.Background(), srv.URL+"/asset", &sb, func(done, total int64, speed float64) {
		calls++
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.String() != payload {
		t.Fatalf("payload corrupted in transit")
	}
	if calls < 2 {
		t.Fatalf("expected an initial and at least one streaming progress call, got %d", calls)
	}
	if lastDone != int64(len(payload)) || lastTotal != int64(len(payload)) {
		t.Fatalf("final progress %d/%d; want %d/%d", lastDone, lastTotal, len(payload), len(payload))
	}
}

func TestDownloadToWriter_TokenHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := NewClient(10*time.Second, "s3cret")
	var sb strings.Builder
	if err := c.DownloadToWriter(context.Background(), srv.URL, &sb, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer s3cret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestWriteFileAtomically(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sub", "file.bin")

	err := WriteFileAtomically(out, func(f *os.File) error {
		_, err := f.WriteString("hello")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected content %q", b)
	}

	// No temp droppings left behind.
	entries, err := os.ReadDir(filepath.Dir(out))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the output file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomically_FailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "file.bin")

	err := WriteFileAtomically(out, func(f *os.File) error {
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output should not exist after failed write")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestGitRemoteURL(t *testing.T) {
	got := GitRemoteURL(" charmbracelet ", "vhs")
	if got != "https://github.com/charmbracelet/vhs.git" {
		t.Fatalf("unexpected url %q", got)
	}
}
