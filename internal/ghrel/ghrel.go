package ghrel

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// releasesPerPage is the page size for release listing. Release walks stop
// at the first match, so a single page is the common case.
const releasesPerPage = 30

// Release models only the fields of the GET /repos/{owner}/{repo}/releases
// response required to pick a downloadable asset.
type Release struct {
	TagName    string  `json:"tag_name"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ProgressFunc receives streaming download progress. total is -1 when the
// response carries no usable content length. speed is in bytes per second.
type ProgressFunc func(done, total int64, speed float64)

// Client talks to the GitHub REST API and to asset download URLs.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient returns a release client with a fixed request-wide timeout.
// If token is non-empty it is sent as a bearer token for rate-limit relief.
func NewClient(timeout time.Duration, token string) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
		token:   token,
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

func errorFromResponse(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return fmt.Errorf("%s: status=%s body=%s", op, resp.Status, string(b))
}

// ListReleases walks the published releases of owner/repo newest-first,
// skipping drafts and prereleases, and calls fn for each. Iteration stops
// when fn returns false or the listing is exhausted.
func (c *Client) ListReleases(ctx context.Context, owner, repo string, fn func(Release) bool) error {
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=%d",
			c.baseURL, owner, repo, releasesPerPage, page)

		resp, err := c.do(ctx, url)
		if err != nil {
			return fmt.Errorf("fetch releases: %w", err)
		}

		var releases []Release
		if resp.StatusCode != http.StatusOK {
			err := errorFromResponse("fetch releases", resp)
			resp.Body.Close()
			return err
		}
		err = json.NewDecoder(resp.Body).Decode(&releases)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode releases JSON: %w", err)
		}

		for _, rel := range releases {
			if rel.Draft || rel.Prerelease {
				continue
			}
			if !fn(rel) {
				return nil
			}
		}

		if len(releases) < releasesPerPage {
			return nil
		}
	}
}

// FindAsset returns the first asset whose name satisfies match.
func FindAsset(rel Release, match func(name string) bool) (Asset, bool) {
	for _, a := range rel.Assets {
		if match(a.Name) {
			return a, true
		}
	}
	return Asset{}, false
}

// DownloadToWriter streams the content at downloadURL into w, reporting
// progress through progress when it is non-nil.
func (c *Client) DownloadToWriter(ctx context.Context, downloadURL string, w io.Writer, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse("download asset", resp)
	}

	total := int64(-1)
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			total = n
		}
	}

	if progress != nil {
		progress(0, total, 0)
	}

	var done int64
	start := time.Now()
	buf := make([]byte, 64<<10)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("stream asset: %w", werr)
			}
			done += int64(n)
			if progress != nil {
				speed := 0.0
				if elapsed := time.Since(start).Seconds(); elapsed > 0 {
					speed = float64(done) / elapsed
				}
				progress(done, total, speed)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream asset: %w", err)
		}
	}
}

// WriteFileAtomically writes a file to outPath by writing to a temporary
// file in the destination directory and then renaming it into place.
func WriteFileAtomically(outPath string, write func(f *os.File) error) error {
	if outPath == "" {
		return fmt.Errorf("outPath is empty")
	}

	dir := filepath.Dir(outPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Best-effort cleanup: if we fail prior to rename, remove the temp file.
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := write(tmp); err != nil {
		return err
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, outPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// GitRemoteURL returns the canonical HTTPS Git remote URL for owner/repo.
func GitRemoteURL(owner, repo string) string {
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)
}

// GetTagsViaGit retrieves all tag names from a remote Git repository by
// executing:
//
//	git ls-remote --tags <remoteURL>
//
// Annotated tag dereferences ("^{}") are stripped; the resulting list is
// de-duplicated and returned in sorted order.
func GetTagsViaGit(ctx context.Context, remoteURL string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-remote", "--tags", remoteURL)

	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git ls-remote failed: %w; stderr=%s", err, string(ee.Stderr))
		}
		return nil, fmt.Errorf("git ls-remote failed: %w", err)
	}

	seen := make(map[string]struct{})
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}

		ref := fields[1]
		const prefix = "refs/tags/"
		if !strings.HasPrefix(ref, prefix) {
			continue
		}

		tag := strings.TrimSuffix(strings.TrimPrefix(ref, prefix), "^{}")
		if tag == "" {
			continue
		}
		seen[tag] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan git output: %w", err)
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	return tags, nil
}
