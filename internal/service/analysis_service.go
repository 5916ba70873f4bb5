package service

import (
	"context"
	"image"

	apperrors "github.com/framelens/composition-go/internal/errors"
	"github.com/framelens/composition-go/internal/queue"
	"github.com/framelens/composition-go/internal/repository"
	"github.com/framelens/composition-go/pkg/models"
)

// CompositionAnalysisService defines the interface for composition analysis
type CompositionAnalysisService interface {
	// AnalyzeURL fetches a frame by reference, enqueues it, and blocks until
	// the analysis resolves
	AnalyzeURL(ctx context.Context, imageURL string) (*models.CompositionAnalysisResult, error)

	// AnalyzeFrame enqueues an already-decoded frame and blocks until the
	// analysis resolves
	AnalyzeFrame(ctx context.Context, frame image.Image, source string) (*models.CompositionAnalysisResult, error)

	// EnqueueURL fetches a frame and enqueues it without waiting; the task ID
	// is returned so callers can correlate events
	EnqueueURL(ctx context.Context, imageURL string, priority int) (string, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// compositionAnalysisService implements CompositionAnalysisService over the
// image repository and the analysis queue
type compositionAnalysisService struct {
	imageRepo repository.ImageRepository
	taskQueue *queue.Queue
}

// NewCompositionAnalysisService creates a new composition analysis service
func NewCompositionAnalysisService(
	imageRepository repository.ImageRepository,
	taskQueue *queue.Queue,
) CompositionAnalysisService {
	return &compositionAnalysisService{
		imageRepo: imageRepository,
		taskQueue: taskQueue,
	}
}

// AnalyzeURL fetches, enqueues, and awaits one analysis
func (s *compositionAnalysisService) AnalyzeURL(ctx context.Context, imageURL string) (*models.CompositionAnalysisResult, error) {
	img, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeFrame(ctx, img, imageURL)
}

// AnalyzeFrame enqueues a decoded frame and awaits its outcome
func (s *compositionAnalysisService) AnalyzeFrame(ctx context.Context, frame image.Image, source string) (*models.CompositionAnalysisResult, error) {
	if frame == nil {
		return nil, apperrors.NewInvalidImageError("frame is required", nil)
	}

	handle := s.taskQueue.Enqueue(models.AnalysisTask{
		Source: source,
		Frame:  frame,
	})

	state, err := handle.Await(ctx)
	if err != nil {
		return nil, apperrors.NewTimeoutError("analysis did not resolve in time", err)
	}

	switch state.Phase {
	case models.PhaseCompleted:
		return state.Result, nil
	case models.PhaseFailed:
		return nil, state.Err
	default:
		// Superseded by a later task or stopped with the queue.
		return nil, apperrors.NewProcessingError("analysis was cancelled before completing", nil)
	}
}

// EnqueueURL fetches a frame and enqueues it without awaiting the outcome
func (s *compositionAnalysisService) EnqueueURL(ctx context.Context, imageURL string, priority int) (string, error) {
	img, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	handle := s.taskQueue.Enqueue(models.AnalysisTask{
		Source:   imageURL,
		Priority: priority,
		Frame:    img,
	})
	return handle.Task.ID, nil
}

// ValidateImageURL validates the image URL
func (s *compositionAnalysisService) ValidateImageURL(imageURL string) error {
	return s.imageRepo.ValidateImageURL(imageURL)
}
