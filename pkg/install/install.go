// Package install fetches the node binaries from their GitHub releases.
package install

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/sethvargo/go-retry"

	"github.com/salahayoub/ethup/pkg/layout"
)

// DefaultAPIBase is the GitHub REST API root.
const DefaultAPIBase = "https://api.github.com"

const userAgent = "ethup"

var (
	// ErrAssetNotFound is returned when the latest release has no archive for this platform.
	ErrAssetNotFound = errors.New("no release asset for this platform")
	// ErrUnsupportedPlatform is returned for an OS or architecture without prebuilt binaries.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Binary identifies a node binary and the repository that publishes it.
type Binary struct {
	Name  string
	Owner string
	Repo  string
}

// Known binaries.
var (
	Reth       = Binary{Name: "reth", Owner: "paradigmxyz", Repo: "reth"}
	Lighthouse = Binary{Name: "lighthouse", Owner: "sigp", Repo: "lighthouse"}
)

type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Installer downloads one binary into the layout's bin directory.
type Installer struct {
	Binary  Binary
	BinDir  string
	TmpDir  string
	APIBase string
	Client  *http.Client

	// Progress receives the download progress bar. Nil disables it.
	Progress io.Writer

	GOOS   string
	GOARCH string

	// Attempts is the number of tries for each HTTP step.
	Attempts uint64
	// Backoff is the first retry delay; it doubles on every retry.
	Backoff time.Duration

	log zerolog.Logger
}

// New returns an Installer for bin that installs into l.
func New(bin Binary, l layout.Layout, log zerolog.Logger) *Installer {
	return &Installer{
		Binary:   bin,
		BinDir:   l.BinDir(),
		TmpDir:   l.TmpDir(),
		APIBase:  DefaultAPIBase,
		Client:   http.DefaultClient,
		Progress: os.Stderr,
		GOOS:     runtime.GOOS,
		GOARCH:   runtime.GOARCH,
		Attempts: 3,
		Backoff:  time.Second,
		log:      log.With().Str("component", "install").Str("binary", bin.Name).Logger(),
	}
}

// Path is where the binary lives once installed.
func (i *Installer) Path() string {
	name := i.Binary.Name
	if i.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(i.BinDir, name)
}

// Ensure installs the binary unless it is already present and returns its path.
func (i *Installer) Ensure(ctx context.Context) (string, error) {
	path := i.Path()
	if _, err := os.Stat(path); err == nil {
		i.log.Debug().Str("path", path).Msg("binary already installed")
		return path, nil
	}
	if err := i.Install(ctx); err != nil {
		return "", err
	}
	return path, nil
}

// Install downloads and unpacks the latest release, replacing any existing binary.
func (i *Installer) Install(ctx context.Context) error {
	rel, err := i.latestRelease(ctx)
	if err != nil {
		return err
	}

	name, err := AssetName(i.Binary.Name, rel.TagName, i.GOOS, i.GOARCH)
	if err != nil {
		return err
	}

	var downloadURL string
	for _, a := range rel.Assets {
		if a.Name == name {
			downloadURL = a.BrowserDownloadURL
			break
		}
	}
	if downloadURL == "" {
		return fmt.Errorf("%w: %s has no %s", ErrAssetNotFound, rel.TagName, name)
	}

	i.log.Info().Str("tag", rel.TagName).Str("asset", name).Msg("downloading release")

	if err := os.MkdirAll(i.TmpDir, 0755); err != nil {
		return fmt.Errorf("failed to create tmp directory: %w", err)
	}
	archive := filepath.Join(i.TmpDir, i.Binary.Name+".tar.gz")
	defer os.Remove(archive)

	if err := i.download(ctx, downloadURL, archive, name); err != nil {
		return err
	}

	if err := os.MkdirAll(i.BinDir, 0755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}
	if err := extract(archive, i.BinDir); err != nil {
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}

	path := i.Path()
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("archive %s did not contain %s: %w", name, i.Binary.Name, err)
	}

	i.log.Info().Str("path", path).Msg("binary installed")
	return nil
}

// AssetName builds "<name>-<tag>-<arch>-<os triple>.tar.gz" for a Go OS/arch pair.
func AssetName(name, tag, goos, goarch string) (string, error) {
	var triple string
	switch goos {
	case "darwin":
		triple = "apple-darwin"
	case "linux":
		triple = "unknown-linux-gnu"
	case "windows":
		triple = "pc-windows-gnu"
	default:
		return "", fmt.Errorf("%w: os %s", ErrUnsupportedPlatform, goos)
	}

	var arch string
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	default:
		return "", fmt.Errorf("%w: arch %s", ErrUnsupportedPlatform, goarch)
	}

	return fmt.Sprintf("%s-%s-%s-%s.tar.gz", name, tag, arch, triple), nil
}

func (i *Installer) latestRelease(ctx context.Context) (*release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimSuffix(i.APIBase, "/"), i.Binary.Owner, i.Binary.Repo)

	var rel release
	err := i.withRetry(ctx, func(ctx context.Context) error {
		resp, err := i.get(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
			return fmt.Errorf("failed to decode release: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up latest %s release: %w", i.Binary.Name, err)
	}
	return &rel, nil
}

func (i *Installer) download(ctx context.Context, url, dst, label string) error {
	err := i.withRetry(ctx, func(ctx context.Context) error {
		resp, err := i.get(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		f, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dst, err)
		}
		defer f.Close()

		var w io.Writer = f
		if i.Progress != nil {
			bar := progressbar.NewOptions64(resp.ContentLength,
				progressbar.OptionSetWriter(i.Progress),
				progressbar.OptionSetDescription(label),
				progressbar.OptionShowBytes(true),
				progressbar.OptionClearOnFinish(),
			)
			defer bar.Finish()
			w = io.MultiWriter(f, bar)
		}

		if _, err := io.Copy(w, resp.Body); err != nil {
			return retry.RetryableError(fmt.Errorf("download interrupted: %w", err))
		}
		return f.Sync()
	})
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", label, err)
	}
	return nil
}

// get issues a GET and returns the response only for 2xx. Transport failures and
// 5xx answers are retryable; other statuses are not.
func (i *Installer) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := i.Client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	statusErr := fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, retry.RetryableError(statusErr)
	}
	return nil, statusErr
}

func (i *Installer) withRetry(ctx context.Context, f retry.RetryFunc) error {
	backoff, err := retry.NewExponential(i.Backoff)
	if err != nil {
		return fmt.Errorf("create retry backoff: %w", err)
	}
	attempts := i.Attempts
	if attempts == 0 {
		attempts = 1
	}
	backoff = retry.WithMaxRetries(attempts-1, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := f(ctx)
		if err != nil {
			i.log.Warn().Err(err).Msg("request failed")
		}
		return err
	})
}

// extract unpacks a .tar.gz into dir. Entries that would land outside dir are rejected.
func extract(archive, dir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	root := filepath.Clean(dir) + string(os.PathSeparator)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dir, hdr.Name)
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			return fmt.Errorf("entry %q escapes %s", hdr.Name, dir)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := writeFile(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		}
	}
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
