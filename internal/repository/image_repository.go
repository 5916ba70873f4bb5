// Package repository resolves image source references to decoded frames,
// routing each URL to the fetcher that can serve it.
package repository

import (
	"context"
	"image"
	"net/url"
	"strings"

	"github.com/framelens/composition-go/internal/storage"
	"github.com/framelens/composition-go/pkg/validation"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage retrieves an image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

const blobHostSuffix = ".blob.core.windows.net"

// RoutingImageRepository picks a fetcher per URL: Azure Blob Storage hosts go
// to the blob fetcher when one is configured, everything else over HTTP.
type RoutingImageRepository struct {
	httpFetcher storage.ImageFetcher
	blobFetcher storage.ImageFetcher
	validator   *validation.SourceValidator
}

// NewRoutingImageRepository creates a repository over the given fetchers.
// blobFetcher may be nil when Azure storage is not configured.
func NewRoutingImageRepository(httpFetcher, blobFetcher storage.ImageFetcher) ImageRepository {
	return &RoutingImageRepository{
		httpFetcher: httpFetcher,
		blobFetcher: blobFetcher,
		validator:   validation.NewSourceValidator(),
	}
}

// FetchImage retrieves an image from a URL
func (r *RoutingImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	parsed, _ := url.Parse(imageURL)
	if r.blobFetcher != nil && strings.HasSuffix(parsed.Host, blobHostSuffix) {
		return r.blobFetcher.FetchImage(ctx, imageURL)
	}
	return r.httpFetcher.FetchImage(ctx, imageURL)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *RoutingImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateSource(imageURL)
}
