package ytdl

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
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

	"go.uber.org/zap"

	"fbvideodl/internal/httputil"
)

const (
	releaseAPI    = "https://api.github.com/repos/yt-dlp/yt-dlp/releases/latest"
	checksumAsset = "SHA2-256SUMS"
	versionFile   = ".yt-dlp-version"
)

var (
	ErrNoAsset          = errors.New("no release asset for this platform")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// HTTPClient interface for mocking
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Manager installs and updates a private yt-dlp binary
type Manager struct {
	utilsDir   string
	releaseURL string
	client     HTTPClient
	logger     *zap.Logger
}

// Release is a GitHub release of yt-dlp
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file of a release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

func (r *Release) asset(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// NewManager creates a new yt-dlp manager
func NewManager(utilsDir string, logger *zap.Logger) *Manager {
	return NewManagerWithClient(utilsDir, httputil.NewClient(5*time.Minute), logger)
}

// NewManagerWithClient creates a manager with a custom HTTP client
func NewManagerWithClient(utilsDir string, client HTTPClient, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		utilsDir:   utilsDir,
		releaseURL: releaseAPI,
		client:     client,
		logger:     logger.Named("ytdl"),
	}
}

// BinaryPath returns the path of the managed yt-dlp executable
func (m *Manager) BinaryPath() string {
	return filepath.Join(m.utilsDir, detectPlatform())
}

// IsInstalled checks if yt-dlp is installed
func (m *Manager) IsInstalled() bool {
	_, err := os.Stat(m.BinaryPath())
	return err == nil
}

// CurrentVersion returns the installed release tag, or "" if unknown
func (m *Manager) CurrentVersion() string {
	data, err := os.ReadFile(filepath.Join(m.utilsDir, versionFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// LatestRelease fetches the latest release metadata
func (m *Manager) LatestRelease(ctx context.Context) (*Release, error) {
	resp, err := m.get(ctx, m.releaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse release info: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("failed to parse release info: missing tag name")
	}

	return &release, nil
}

// CheckForUpdate reports the latest release tag and whether it differs from
// the installed one
func (m *Manager) CheckForUpdate(ctx context.Context) (string, bool, error) {
	release, err := m.LatestRelease(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to check for updates: %w", err)
	}

	if !m.IsInstalled() {
		return release.TagName, true, nil
	}
	return release.TagName, m.CurrentVersion() != release.TagName, nil
}

// Install downloads the latest release and installs it, replacing any
// existing binary
func (m *Manager) Install(ctx context.Context) (string, error) {
	release, err := m.LatestRelease(ctx)
	if err != nil {
		return "", err
	}
	if err := m.install(ctx, release); err != nil {
		return "", err
	}
	return release.TagName, nil
}

// EnsureInstalled installs yt-dlp if it is missing and returns its path
func (m *Manager) EnsureInstalled(ctx context.Context) (string, error) {
	if m.IsInstalled() {
		return m.BinaryPath(), nil
	}

	m.logger.Info("yt-dlp not found, downloading", zap.String("dir", m.utilsDir))
	if _, err := m.Install(ctx); err != nil {
		return "", err
	}
	return m.BinaryPath(), nil
}

// Update installs the latest release if it is newer than the installed one
func (m *Manager) Update(ctx context.Context) (string, bool, error) {
	release, err := m.LatestRelease(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to check for updates: %w", err)
	}

	if m.IsInstalled() && m.CurrentVersion() == release.TagName {
		m.logger.Info("yt-dlp is up to date", zap.String("version", release.TagName))
		return release.TagName, false, nil
	}

	if err := m.install(ctx, release); err != nil {
		return "", false, err
	}
	return release.TagName, true, nil
}

func (m *Manager) install(ctx context.Context, release *Release) error {
	platform := detectPlatform()
	asset, ok := release.asset(platform)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoAsset, platform)
	}

	var want string
	if sums, ok := release.asset(checksumAsset); ok {
		sum, err := m.fetchChecksum(ctx, sums.BrowserDownloadURL, platform)
		if err != nil {
			return err
		}
		want = sum
	}

	if err := os.MkdirAll(m.utilsDir, 0755); err != nil {
		return fmt.Errorf("failed to create utils directory: %w", err)
	}

	m.logger.Info("downloading yt-dlp", zap.String("version", release.TagName), zap.String("asset", platform))
	resp, err := m.get(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return fmt.Errorf("failed to download yt-dlp: %w", err)
	}
	defer resp.Body.Close()

	binaryPath := m.BinaryPath()
	tmpPath := binaryPath + ".tmp"

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	hash := sha256.New()
	_, err = io.Copy(io.MultiWriter(out, hash), resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if got := hex.EncodeToString(hash.Sum(nil)); want != "" && !strings.EqualFold(got, want) {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, want)
	}

	if err := os.Chmod(tmpPath, 0755); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to make executable: %w", err)
	}

	// rename over an open file fails on windows
	if m.IsInstalled() {
		if err := os.Remove(binaryPath); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to remove old file: %w", err)
		}
	}

	if err := os.Rename(tmpPath, binaryPath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.utilsDir, versionFile), []byte(release.TagName+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to record version: %w", err)
	}

	m.logger.Info("yt-dlp installed", zap.String("version", release.TagName), zap.String("path", binaryPath))
	return nil
}

// fetchChecksum reads the published SHA-256 of the named asset
func (m *Manager) fetchChecksum(ctx context.Context, url, name string) (string, error) {
	resp, err := m.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch checksums: %w", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && strings.TrimPrefix(fields[1], "*") == name {
			return fields[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read checksums: %w", err)
	}
	return "", fmt.Errorf("no checksum published for %s", name)
}

func (m *Manager) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "fbvideodl")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// detectPlatform returns the yt-dlp release asset name for the current platform
func detectPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "yt-dlp.exe"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "yt-dlp_linux_aarch64"
		}
		return "yt-dlp_linux"
	case "darwin":
		return "yt-dlp_macos"
	default:
		return "yt-dlp"
	}
}
