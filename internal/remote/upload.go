package remote

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// UploadFile PUTs a local file to a pre-signed URL. The URL embeds its own
// authorization, so no bearer token is attached.
func (c *Client) UploadFile(ctx context.Context, uploadURL, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat upload file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: upload: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: "upload rejected"}
	}
	return nil
}
