package service

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	apperrors "github.com/framelens/composition-go/internal/errors"
	"github.com/framelens/composition-go/internal/observer"
	"github.com/framelens/composition-go/internal/orchestrator"
	"github.com/framelens/composition-go/internal/queue"
)

// stubRepository serves a fixed frame, or a fixed error.
type stubRepository struct {
	frame image.Image
	err   error
}

func (s *stubRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.frame, nil
}

func (s *stubRepository) ValidateImageURL(imageURL string) error {
	return nil
}

func testFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			v := uint8((x * 255) / 200)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func newTestService(t *testing.T, repo *stubRepository) CompositionAnalysisService {
	t.Helper()
	pub := observer.NewEventPublisher()
	pool := orchestrator.NewWorkerPool(2)
	orch := orchestrator.New(pool, pub, orchestrator.Options{StageTimeout: 5 * time.Second})
	q := queue.New(orch, pub, 0)
	t.Cleanup(q.Close)
	return NewCompositionAnalysisService(repo, q)
}

func TestAnalyzeURL_Success(t *testing.T) {
	svc := newTestService(t, &stubRepository{frame: testFrame()})

	result, err := svc.AnalyzeURL(context.Background(), "https://example.com/photo.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a result")
	}
	if len(result.DetectedRules) == 0 {
		t.Error("Expected detected rules in the result")
	}
	if result.Score < 0 || result.Score > 1 {
		t.Errorf("Expected score in [0,1], got %f", result.Score)
	}
}

func TestAnalyzeURL_FetchFailurePropagates(t *testing.T) {
	fetchErr := apperrors.NewNetworkError("fetch failed", nil)
	svc := newTestService(t, &stubRepository{err: fetchErr})

	_, err := svc.AnalyzeURL(context.Background(), "https://example.com/photo.jpg")
	if err == nil {
		t.Fatal("Expected the fetch error to propagate")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("Expected network error type, got: %v", err)
	}
}

func TestAnalyzeFrame_NilFrame(t *testing.T) {
	svc := newTestService(t, &stubRepository{})

	_, err := svc.AnalyzeFrame(context.Background(), nil, "camera")
	if err == nil {
		t.Fatal("Expected an error for a nil frame")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidImage) {
		t.Errorf("Expected invalid image error type, got: %v", err)
	}
}

func TestAnalyzeFrame_ContextExpiry(t *testing.T) {
	svc := newTestService(t, &stubRepository{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.AnalyzeFrame(ctx, testFrame(), "camera")
	if err == nil {
		t.Fatal("Expected an error for an expired context")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Errorf("Expected timeout error type, got: %v", err)
	}
}

func TestEnqueueURL_ReturnsTaskID(t *testing.T) {
	svc := newTestService(t, &stubRepository{frame: testFrame()})

	id, err := svc.EnqueueURL(context.Background(), "https://example.com/photo.jpg", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if id == "" {
		t.Error("Expected a non-empty task ID")
	}
}
