// Package remote is the typed HTTP client for the tracking service. It maps
// the service's error envelope onto sentinel errors so the sync engine can
// switch on failure classes without parsing responses itself.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/workpulse/agent/internal/domain/outbox"
)

const defaultTimeout = 15 * time.Second

// Client talks to the tracking service REST API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new Client. Every request is bounded by the timeout so
// a hung service can never stall a sync drain indefinitely.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// UploadTarget holds the pre-signed URLs for one screenshot's binaries
type UploadTarget struct {
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// RemoteSession is the service's view of a session
type RemoteSession struct {
	ID       string `json:"id"`
	IsActive bool   `json:"is_active"`
	DeviceID string `json:"device_id"`
}

// RemoteScreenshot is the service's view of a screenshot
type RemoteScreenshot struct {
	ID           string `json:"id"`
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// VersionStatus is the service's verdict on an agent version
type VersionStatus struct {
	Supported      bool   `json:"supported"`
	MinimumVersion string `json:"minimum_version"`
	DownloadURL    string `json:"download_url"`
}

// AuthInfo identifies the authenticated account
type AuthInfo struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// CreateSession registers a new session
func (c *Client) CreateSession(ctx context.Context, m outbox.SessionMutation) error {
	return c.do(ctx, http.MethodPost, "/sessions", m, nil)
}

// UpdateSession patches an existing session
func (c *Client) UpdateSession(ctx context.Context, m outbox.SessionMutation) error {
	return c.do(ctx, http.MethodPatch, "/sessions/"+url.PathEscape(m.SessionID), m, nil)
}

// GetSession fetches the service's view of a session
func (c *Client) GetSession(ctx context.Context, id string) (*RemoteSession, error) {
	var sess RemoteSession
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CreateActivityPeriod delivers one scored activity period
func (c *Client) CreateActivityPeriod(ctx context.Context, m outbox.PeriodMutation) error {
	return c.do(ctx, http.MethodPost, "/activity-periods", m, nil)
}

// GenerateUploadURL requests pre-signed upload URLs for a screenshot
func (c *Client) GenerateUploadURL(ctx context.Context, screenshotID string) (UploadTarget, error) {
	body := map[string]string{"screenshot_id": screenshotID}
	var target UploadTarget
	if err := c.do(ctx, http.MethodPost, "/screenshots/generate-upload-url", body, &target); err != nil {
		return UploadTarget{}, err
	}
	return target, nil
}

// CreateScreenshot registers screenshot metadata after the binaries uploaded
func (c *Client) CreateScreenshot(ctx context.Context, m outbox.ScreenshotMutation, imageURL, thumbnailURL string) error {
	body := struct {
		outbox.ScreenshotMutation
		ImageURL     string `json:"image_url"`
		ThumbnailURL string `json:"thumbnail_url"`
	}{m, imageURL, thumbnailURL}
	return c.do(ctx, http.MethodPost, "/screenshots/create", body, nil)
}

// GetScreenshot fetches the service's view of a screenshot
func (c *Client) GetScreenshot(ctx context.Context, id string) (*RemoteScreenshot, error) {
	var shot RemoteScreenshot
	if err := c.do(ctx, http.MethodGet, "/screenshots/"+url.PathEscape(id), nil, &shot); err != nil {
		return nil, err
	}
	return &shot, nil
}

// CheckVersion asks whether this agent version is still accepted
func (c *Client) CheckVersion(ctx context.Context, version string) (VersionStatus, error) {
	var status VersionStatus
	err := c.do(ctx, http.MethodGet, "/app-versions/check/"+url.PathEscape(version), nil, &status)
	if err != nil {
		return VersionStatus{}, err
	}
	return status, nil
}

// VerifyAuth validates the configured token and returns the account
func (c *Client) VerifyAuth(ctx context.Context) (AuthInfo, error) {
	var info AuthInfo
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, &info); err != nil {
		return AuthInfo{}, err
	}
	return info, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response for %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response, method, path string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Error    string `json:"error"`
		Message  string `json:"message"`
		DeviceID string `json:"device_id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error
		apiErr.Message = envelope.Message
		apiErr.DeviceID = envelope.DeviceID
	}

	c.logger.Debug("api request failed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"code", apiErr.Code,
	)
	return apiErr
}
