// Package firmware checks GitHub releases of the controller firmware and
// pushes new images to the device over its update endpoint.
package firmware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnywind/HA-IoTiX/internal/adam"
)

// Firmware images are published as GitHub release assets.
const (
	DefaultRepo  = "johnywind/adam-ha-firmware"
	assetName    = "firmware.bin"
	githubAPIURL = "https://api.github.com"

	checkTimeout    = 10 * time.Second
	downloadTimeout = 60 * time.Second
)

// ErrNoAsset is returned when the latest release carries no firmware image.
var ErrNoAsset = fmt.Errorf("firmware: release has no %s asset", assetName)

// Release is the subset of a GitHub release the updater needs.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Version returns the release version with any leading "v" stripped.
func (r *Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// Updater fetches firmware releases and uploads them to a controller.
type Updater struct {
	client     adam.AdamClient
	httpClient *http.Client
	apiURL     string
	repo       string
	logger     *zap.Logger
}

// NewUpdater creates an updater for the given controller client.
func NewUpdater(client adam.AdamClient, logger *zap.Logger) *Updater {
	return &Updater{
		client:     client,
		httpClient: &http.Client{},
		apiURL:     githubAPIURL,
		repo:       DefaultRepo,
		logger:     logger,
	}
}

// LatestRelease fetches the newest published firmware release.
func (u *Updater) LatestRelease(ctx context.Context) (*Release, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/releases/latest", u.apiURL, u.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("firmware: building release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firmware: fetching latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("firmware: release lookup returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("firmware: decoding release: %w", err)
	}
	return &release, nil
}

// UpdateAvailable reports whether the latest release differs from the
// version the controller is running.
func (u *Updater) UpdateAvailable(ctx context.Context, currentVersion string) (*Release, bool, error) {
	release, err := u.LatestRelease(ctx)
	if err != nil {
		return nil, false, err
	}

	available := release.Version() != strings.TrimPrefix(currentVersion, "v")
	if available {
		u.logger.Info("Firmware update available",
			zap.String("current", currentVersion),
			zap.String("latest", release.Version()))
	}
	return release, available, nil
}

// Apply downloads the release's firmware image and uploads it to the
// controller. The device reboots on success; the caller should request a
// refresh once it is back.
func (u *Updater) Apply(ctx context.Context, release *Release) error {
	var downloadURL string
	for _, asset := range release.Assets {
		if asset.Name == assetName {
			downloadURL = asset.BrowserDownloadURL
			break
		}
	}
	if downloadURL == "" {
		return ErrNoAsset
	}

	u.logger.Info("Downloading firmware image",
		zap.String("version", release.Version()),
		zap.String("url", downloadURL))

	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("firmware: building download request: %w", err)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("firmware: downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("firmware: image download returned status %d", resp.StatusCode)
	}

	if err := u.client.UploadFirmware(ctx, resp.Body); err != nil {
		return fmt.Errorf("firmware: uploading image: %w", err)
	}

	u.logger.Info("Firmware update applied", zap.String("version", release.Version()))
	return nil
}
