package storage

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	apperrors "github.com/framelens/composition-go/internal/errors"
)

// ImageFetcher retrieves a decoded frame from a source reference.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)
}

const fetchAttempts = 3

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S)
type HTTPImageFetcher struct {
	client *http.Client
}

// NewHTTPImageFetcher creates an HTTP image fetcher with a transport tuned
// for single image downloads
func NewHTTPImageFetcher(timeout time.Duration) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return apperrors.NewNetworkError("too many redirects (limit: 3)", nil)
				}
				return nil
			},
		},
	}
}

// FetchImage downloads and decodes an image, retrying transient failures.
// Client (4xx) responses are not retried.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, */*")
	req.Header.Set("User-Agent", "composition-analyzer/1.0")

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		resp, err = h.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if err != nil {
			lastErr = err
			resp = nil
		} else {
			resp.Body.Close()
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				appErr := apperrors.NewNotFoundError("image unavailable", nil)
				appErr.StatusCode = resp.StatusCode
				lastErr = appErr
				resp = nil
				break
			}
			lastErr = apperrors.NewNetworkError("server error fetching image", nil)
			resp = nil
		}

		if attempt < fetchAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}

	if resp == nil {
		if lastErr != nil {
			return nil, apperrors.NewNetworkError("failed to fetch image", lastErr)
		}
		return nil, apperrors.NewNetworkError("failed to fetch image", nil)
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, apperrors.NewInvalidImageError("failed to decode image", err)
	}
	return img, nil
}
