// Package checkpoint verifies that the IndexTTS2 model checkpoints are
// present on disk and fetches missing ones from a Hugging Face repository
// when auto-download is enabled.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RequiredFiles are the checkpoint files the engine needs to load.
var RequiredFiles = []string{
	"gpt.pth",
	"s2mel.pth",
	"bpe.model",
	"wav2vec2bert_stats.pt",
	"feat1.pt",
	"feat2.pt",
	"config.yaml",
	"pinyin.vocab",
}

// RequiredDirs are checkpoint subdirectories fetched recursively.
var RequiredDirs = []string{
	"qwen0.6bemo4-merge",
}

// Check reports whether every required file and directory exists under
// modelDir, along with the missing entries. Directories are marked with a
// trailing slash.
func Check(modelDir string) (bool, []string) {
	var missing []string
	for _, f := range RequiredFiles {
		if info, err := os.Stat(filepath.Join(modelDir, f)); err != nil || info.IsDir() {
			missing = append(missing, f)
		}
	}
	for _, d := range RequiredDirs {
		if info, err := os.Stat(filepath.Join(modelDir, d)); err != nil || !info.IsDir() {
			missing = append(missing, d+"/")
		}
	}
	return len(missing) == 0, missing
}

// Downloader fetches checkpoint files from a Hugging Face style endpoint.
type Downloader struct {
	Repo     string // e.g. "IndexTeam/IndexTTS-2"
	Endpoint string // default: "https://huggingface.co"
	Client   *http.Client
}

// NewDownloader creates a Downloader with defaults applied.
func NewDownloader(repo, endpoint string) *Downloader {
	if endpoint == "" {
		endpoint = "https://huggingface.co"
	}
	return &Downloader{
		Repo:     repo,
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: 30 * time.Minute},
	}
}

// Ensure checks modelDir and downloads whatever is missing. It returns an
// error when the checkpoints are still incomplete afterwards — the one fatal
// condition in this service.
func (d *Downloader) Ensure(ctx context.Context, modelDir string) error {
	ok, missing := Check(modelDir)
	if ok {
		return nil
	}

	slog.Info("downloading missing checkpoints", "repo", d.Repo, "missing", missing)
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	for _, entry := range missing {
		if strings.HasSuffix(entry, "/") {
			if err := d.fetchDir(ctx, modelDir, strings.TrimSuffix(entry, "/")); err != nil {
				return fmt.Errorf("download %s: %w", entry, err)
			}
			continue
		}
		if err := d.fetchFile(ctx, modelDir, entry); err != nil {
			return fmt.Errorf("download %s: %w", entry, err)
		}
	}

	if ok, missing = Check(modelDir); !ok {
		return fmt.Errorf("checkpoints still missing after download: %s", strings.Join(missing, ", "))
	}
	return nil
}

// fetchDir lists a repository subtree via the tree API and downloads each
// file in it.
func (d *Downloader) fetchDir(ctx context.Context, modelDir, dir string) error {
	url := fmt.Sprintf("%s/api/models/%s/tree/main/%s?recursive=true", d.Endpoint, d.Repo, dir)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tree listing returned %d", resp.StatusCode)
	}

	var entries []struct {
		Type string `json:"type"`
		Path string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode tree listing: %w", err)
	}

	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		if err := d.fetchFile(ctx, modelDir, e.Path); err != nil {
			return err
		}
	}
	return nil
}

// fetchFile downloads one repository file to modelDir, writing through a
// temp file so a partial download never looks like a valid checkpoint.
func (d *Downloader) fetchFile(ctx context.Context, modelDir, path string) error {
	url := fmt.Sprintf("%s/%s/resolve/main/%s", d.Endpoint, d.Repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s returned %d", path, resp.StatusCode)
	}

	dest := filepath.Join(modelDir, path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return err
	}
	_, err = io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}

	slog.Info("downloaded checkpoint file", "file", path)
	return os.Rename(tmp.Name(), dest)
}
