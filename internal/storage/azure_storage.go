package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/framelens/composition-go/internal/errors"
)

// AzureImageFetcher implements ImageFetcher over Azure Blob Storage. Blob
// references use the standard https://<account>.blob.core.windows.net/<container>/<blob>
// form.
type AzureImageFetcher struct {
	client *azblob.Client
}

// NewAzureImageFetcher creates a blob fetcher from shared-key credentials
func NewAzureImageFetcher(accountName, accountKey string) (*AzureImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewInternalError("invalid azure credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("azure client init failed", err)
	}

	return &AzureImageFetcher{client: client}, nil
}

// FetchImage downloads and decodes a blob
func (s *AzureImageFetcher) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid blob URL", err)
	}

	container, blob, ok := splitBlobPath(parsedURL.Path)
	if !ok {
		return nil, apperrors.NewValidationError("blob URL must name a container and blob", nil)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := image.Decode(retryReader)
	if err != nil {
		return nil, apperrors.NewInvalidImageError("failed to decode blob image", err)
	}
	return img, nil
}

func splitBlobPath(path string) (container, blob string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	container, blob, found := strings.Cut(trimmed, "/")
	if !found || container == "" || blob == "" {
		return "", "", false
	}
	return container, blob, true
}
