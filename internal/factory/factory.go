package factory

import (
	"fmt"

	"github.com/framelens/composition-go/internal/config"
	"github.com/framelens/composition-go/internal/storage"
)

// FetcherType represents different image acquisition backends
type FetcherType string

const (
	// HTTPFetcher for plain HTTP(S) image fetching
	HTTPFetcher FetcherType = "http"
	// AzureFetcher for Azure blob storage
	AzureFetcher FetcherType = "azure"
)

// FetcherFactory creates image fetchers from configuration
type FetcherFactory interface {
	CreateFetcher(fetcherType FetcherType) (storage.ImageFetcher, error)
}

type fetcherFactory struct {
	cfg *config.Config
}

// NewFetcherFactory creates a new fetcher factory
func NewFetcherFactory(cfg *config.Config) FetcherFactory {
	return &fetcherFactory{cfg: cfg}
}

// CreateFetcher creates a fetcher for the specified backend
func (f *fetcherFactory) CreateFetcher(fetcherType FetcherType) (storage.ImageFetcher, error) {
	switch fetcherType {
	case HTTPFetcher:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout), nil
	case AzureFetcher:
		if !f.cfg.AzureConfigured() {
			return nil, fmt.Errorf("azure storage credentials are not configured")
		}
		return storage.NewAzureImageFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %s", fetcherType)
	}
}
