package firmware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnywind/HA-IoTiX/internal/adam"
)

// newGitHubStub serves a latest-release document plus the firmware image.
func newGitHubStub(t *testing.T, tag string, image []byte) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var ts *httptest.Server

	mux.HandleFunc("/repos/johnywind/adam-ha-firmware/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))

		release := Release{TagName: tag}
		if image != nil {
			release.Assets = []Asset{
				{Name: "checksums.txt", BrowserDownloadURL: ts.URL + "/download/checksums.txt"},
				{Name: "firmware.bin", BrowserDownloadURL: ts.URL + "/download/firmware.bin"},
			}
		}
		json.NewEncoder(w).Encode(release)
	})
	mux.HandleFunc("/download/firmware.bin", func(w http.ResponseWriter, r *http.Request) {
		w.Write(image)
	})

	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestUpdater(mock *adam.MockClient, stub *httptest.Server) *Updater {
	u := NewUpdater(mock, zap.NewNop())
	u.apiURL = stub.URL
	return u
}

func TestReleaseVersion(t *testing.T) {
	assert.Equal(t, "1.2.0", (&Release{TagName: "v1.2.0"}).Version())
	assert.Equal(t, "1.2.0", (&Release{TagName: "1.2.0"}).Version())
}

func TestUpdateAvailable(t *testing.T) {
	t.Run("newer release is reported", func(t *testing.T) {
		stub := newGitHubStub(t, "v1.1.0", []byte("image"))
		u := newTestUpdater(adam.NewMockClient(), stub)

		release, available, err := u.UpdateAvailable(context.Background(), "1.0.0")
		require.NoError(t, err)
		assert.True(t, available)
		assert.Equal(t, "1.1.0", release.Version())
	})

	t.Run("matching version is not an update", func(t *testing.T) {
		stub := newGitHubStub(t, "v1.0.0", []byte("image"))
		u := newTestUpdater(adam.NewMockClient(), stub)

		_, available, err := u.UpdateAvailable(context.Background(), "1.0.0")
		require.NoError(t, err)
		assert.False(t, available)
	})
}

func TestApply(t *testing.T) {
	t.Run("downloads and uploads the image", func(t *testing.T) {
		image := []byte("adam firmware payload")
		stub := newGitHubStub(t, "v1.1.0", image)
		mock := adam.NewMockClient()
		u := newTestUpdater(mock, stub)

		release, err := u.LatestRelease(context.Background())
		require.NoError(t, err)

		require.NoError(t, u.Apply(context.Background(), release))
		assert.Equal(t, image, mock.UploadedFirmware())
	})

	t.Run("fails when the release has no image", func(t *testing.T) {
		stub := newGitHubStub(t, "v1.1.0", nil)
		u := newTestUpdater(adam.NewMockClient(), stub)

		release, err := u.LatestRelease(context.Background())
		require.NoError(t, err)

		err = u.Apply(context.Background(), release)
		assert.ErrorIs(t, err, ErrNoAsset)
	})

	t.Run("propagates upload failure", func(t *testing.T) {
		stub := newGitHubStub(t, "v1.1.0", []byte("image"))
		mock := adam.NewMockClient()
		mock.FailWith("update", assert.AnError)
		u := newTestUpdater(mock, stub)

		release, err := u.LatestRelease(context.Background())
		require.NoError(t, err)

		assert.Error(t, u.Apply(context.Background(), release))
	})
}

func TestLatestReleaseErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	})
	stub := httptest.NewServer(mux)
	defer stub.Close()

	u := newTestUpdater(adam.NewMockClient(), stub)
	_, err := u.LatestRelease(context.Background())
	assert.Error(t, err)
}
