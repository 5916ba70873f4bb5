package repository

import (
	"context"
	"image"
	"testing"

	apperrors "github.com/framelens/composition-go/internal/errors"
)

// stubFetcher records the URLs routed to it.
type stubFetcher struct {
	fetched []string
}

func (s *stubFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	s.fetched = append(s.fetched, imageURL)
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

func TestRoutingImageRepository_HTTPByDefault(t *testing.T) {
	httpFetcher := &stubFetcher{}
	blobFetcher := &stubFetcher{}
	repo := NewRoutingImageRepository(httpFetcher, blobFetcher)

	_, err := repo.FetchImage(context.Background(), "https://example.com/photo.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(httpFetcher.fetched) != 1 {
		t.Errorf("Expected the HTTP fetcher to serve the URL, got %d fetches", len(httpFetcher.fetched))
	}
	if len(blobFetcher.fetched) != 0 {
		t.Errorf("Expected no blob fetches, got %d", len(blobFetcher.fetched))
	}
}

func TestRoutingImageRepository_BlobHostRouting(t *testing.T) {
	httpFetcher := &stubFetcher{}
	blobFetcher := &stubFetcher{}
	repo := NewRoutingImageRepository(httpFetcher, blobFetcher)

	blobURL := "https://acct.blob.core.windows.net/shots/frame.png"
	_, err := repo.FetchImage(context.Background(), blobURL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(blobFetcher.fetched) != 1 || blobFetcher.fetched[0] != blobURL {
		t.Errorf("Expected the blob fetcher to serve the URL, got %v", blobFetcher.fetched)
	}
	if len(httpFetcher.fetched) != 0 {
		t.Errorf("Expected no HTTP fetches, got %d", len(httpFetcher.fetched))
	}
}

func TestRoutingImageRepository_BlobHostWithoutBlobFetcher(t *testing.T) {
	httpFetcher := &stubFetcher{}
	repo := NewRoutingImageRepository(httpFetcher, nil)

	_, err := repo.FetchImage(context.Background(), "https://acct.blob.core.windows.net/shots/frame.png")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(httpFetcher.fetched) != 1 {
		t.Error("Expected blob URLs to fall back to HTTP without a blob fetcher")
	}
}

func TestRoutingImageRepository_RejectsInvalidURL(t *testing.T) {
	httpFetcher := &stubFetcher{}
	repo := NewRoutingImageRepository(httpFetcher, nil)

	_, err := repo.FetchImage(context.Background(), "ftp://example.com/photo.jpg")
	if err == nil {
		t.Fatal("Expected a validation error for an unsupported scheme")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error type, got: %v", err)
	}
	if len(httpFetcher.fetched) != 0 {
		t.Error("Expected no fetch for a rejected URL")
	}
}

func TestRoutingImageRepository_ValidateImageURL(t *testing.T) {
	repo := NewRoutingImageRepository(&stubFetcher{}, nil)

	if err := repo.ValidateImageURL("https://example.com/photo.jpg"); err != nil {
		t.Errorf("Expected a valid URL to pass, got: %v", err)
	}
	if err := repo.ValidateImageURL(""); err == nil {
		t.Error("Expected an empty URL to fail validation")
	}
}
