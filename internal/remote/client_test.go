package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/workpulse/agent/internal/domain/outbox"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", time.Second, nil)
}

func sessionMutation() outbox.SessionMutation {
	return outbox.SessionMutation{
		SessionID: "s1",
		Mode:      "command_hours",
		StartTime: time.Now(),
		IsActive:  true,
		DeviceID:  "dev-1",
	}
}

func TestCreateSessionSendsAuthAndBody(t *testing.T) {
	var gotAuth string
	var gotBody outbox.SessionMutation
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, c.CreateSession(context.Background(), sessionMutation()))
	require.Equal(t, "Bearer test-token", gotAuth)
	require.Equal(t, "s1", gotBody.SessionID)
}

func TestUpdateSessionPatchesByID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/sessions/s1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.UpdateSession(context.Background(), sessionMutation()))
}

func TestConcurrentSessionError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":     "CONCURRENT_SESSION_DETECTED",
			"message":   "another device holds the session",
			"device_id": "other-device",
		})
	})

	err := c.CreateSession(context.Background(), sessionMutation())
	require.ErrorIs(t, err, ErrConcurrentSession)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "other-device", apiErr.DeviceID)
	require.False(t, Retryable(err))
}

func TestUnsupportedVersionError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUpgradeRequired)
	})

	err := c.CreateActivityPeriod(context.Background(), outbox.PeriodMutation{PeriodID: "p1"})
	require.ErrorIs(t, err, ErrUnsupportedVersion)
	require.False(t, Retryable(err))
}

func TestInvalidOperationError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "INVALID_OPERATION"})
	})

	err := c.CreateScreenshot(context.Background(), outbox.ScreenshotMutation{}, "", "")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestServerErrorIsRetryable(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.CreateSession(context.Background(), sessionMutation())
	require.Error(t, err)
	require.True(t, Retryable(err))
	require.NotErrorIs(t, err, ErrConcurrentSession)
}

func TestUnreachableService(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "token", 200*time.Millisecond, nil)

	_, err := c.VerifyAuth(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)
	require.False(t, Retryable(err))
}

func TestGenerateUploadURLDecodesTarget(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/screenshots/generate-upload-url", r.URL.Path)
		json.NewEncoder(w).Encode(UploadTarget{
			ImageURL:     "https://bucket/img",
			ThumbnailURL: "https://bucket/thumb",
		})
	})

	target, err := c.GenerateUploadURL(context.Background(), "sc1")
	require.NoError(t, err)
	require.Equal(t, "https://bucket/img", target.ImageURL)
	require.Equal(t, "https://bucket/thumb", target.ThumbnailURL)
}

func TestCheckVersion(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/app-versions/check/1.4.0", r.URL.Path)
		json.NewEncoder(w).Encode(VersionStatus{Supported: true})
	})

	status, err := c.CheckVersion(context.Background(), "1.4.0")
	require.NoError(t, err)
	require.True(t, status.Supported)
}

func TestVerifyAuth(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/verify", r.URL.Path)
		json.NewEncoder(w).Encode(AuthInfo{UserID: "user-1"})
	})

	info, err := c.VerifyAuth(context.Background())
	require.NoError(t, err)
	require.Equal(t, "user-1", info.UserID)
}

func TestUploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Empty(t, r.Header.Get("Authorization"), "pre-signed URLs carry their own auth")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "token", time.Second, nil)
	require.NoError(t, c.UploadFile(context.Background(), srv.URL+"/bucket/key", path))
	require.Equal(t, "png-bytes", string(gotBody))

	require.Error(t, c.UploadFile(context.Background(), srv.URL, filepath.Join(t.TempDir(), "missing.png")))
}
