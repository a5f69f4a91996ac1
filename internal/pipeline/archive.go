package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/bill-sync/internal/logger"
	"github.com/yeka/zip"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var archiveURLRe = regexp.MustCompile(ArchiveURLPattern)

// LocateArchiveURL returns the first .zip download link found in text.
func LocateArchiveURL(text string) (string, bool) {
	url := archiveURLRe.FindString(text)
	return url, url != ""
}

// HTTPFetcher downloads archives over HTTP(S) into Dir.
type HTTPFetcher struct {
	Client *http.Client
	// Token, when set, is sent as the Authorization header.
	Token string
	Dir   string
}

// NewHTTPFetcher creates a fetcher that writes downloads into dir.
func NewHTTPFetcher(client *http.Client, token, dir string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Client: client, Token: token, Dir: dir}
}

// Fetch downloads url into a temporary file and returns its path.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	log := logger.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("Fetch: building request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	if f.Token != "" {
		req.Header.Set("Authorization", authorizationValue(f.Token))
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Fetch: GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("Fetch: GET %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.CreateTemp(f.Dir, "export-*.zip")
	if err != nil {
		return "", fmt.Errorf("Fetch: creating temp file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", fmt.Errorf("Fetch: writing %s: %w", out.Name(), err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("Fetch: closing %s: %w", out.Name(), err)
	}

	log.Info().
		Str("url", url).
		Str("path", out.Name()).
		Int64("bytes", n).
		Msg("Downloaded archive")

	return out.Name(), nil
}

// authorizationValue keeps an explicit scheme ("token x", "Bearer x") and
// defaults bare tokens to Bearer.
func authorizationValue(token string) string {
	if strings.Contains(strings.TrimSpace(token), " ") {
		return token
	}
	return "Bearer " + token
}

// ZipExtractor unpacks password-protected zip archives into Dir.
type ZipExtractor struct {
	Password string
	Dir      string
}

// NewZipExtractor creates an extractor writing into dir.
func NewZipExtractor(password, dir string) *ZipExtractor {
	return &ZipExtractor{Password: password, Dir: dir}
}

// Extract writes every regular file of the archive under Dir and returns their paths.
// A wrong password or a corrupt archive is an error.
func (e *ZipExtractor) Extract(ctx context.Context, archivePath string) ([]string, error) {
	log := logger.FromContext(ctx)

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("Extract: opening %s: %w", archivePath, err)
	}
	defer r.Close()

	dest := e.Dir
	if dest == "" {
		dest = filepath.Dir(archivePath)
	}

	var paths []string
	for _, f := range r.File {
		name := entryName(f.Name)
		target, err := safeJoin(dest, name)
		if err != nil {
			return nil, fmt.Errorf("Extract: %w", err)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("Extract: creating %s: %w", target, err)
			}
			continue
		}

		if f.IsEncrypted() {
			f.SetPassword(e.Password)
		}
		if err := extractFile(f, target); err != nil {
			return nil, fmt.Errorf("Extract: %s: %w", name, err)
		}

		log.Debug().Str("file", target).Msg("Extracted archive entry")
		paths = append(paths, target)
	}

	log.Info().
		Str("archive", archivePath).
		Int("files", len(paths)).
		Msg("Archive extracted")

	return paths, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return out.Close()
}

// entryName decodes GBK entry names written by Chinese archivers without the UTF-8 flag.
func entryName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().String(name)
	if err != nil {
		return name
	}
	return decoded
}

// safeJoin resolves an archive entry under dir and rejects entries escaping it.
func safeJoin(dir, name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if path.IsAbs(slashed) {
		return "", fmt.Errorf("illegal entry path %q", name)
	}
	target := filepath.Join(dir, filepath.FromSlash(slashed))

	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal entry path %q", name)
	}
	return target, nil
}
