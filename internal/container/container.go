package container

import (
	"fmt"
	"net/http"

	"github.com/framelens/composition-go/internal/config"
	"github.com/framelens/composition-go/internal/factory"
	"github.com/framelens/composition-go/internal/logger"
	"github.com/framelens/composition-go/internal/observer"
	"github.com/framelens/composition-go/internal/orchestrator"
	"github.com/framelens/composition-go/internal/queue"
	"github.com/framelens/composition-go/internal/repository"
	"github.com/framelens/composition-go/internal/service"
	"github.com/framelens/composition-go/internal/storage"
	"github.com/framelens/composition-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	publisher       *observer.EventPublisher
	metrics         *observer.MetricsObserver
	workerPool      *orchestrator.WorkerPool
	orchestrator    *orchestrator.Orchestrator
	taskQueue       *queue.Queue
	imageRepository repository.ImageRepository
	analysisService service.CompositionAnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	workerPool := orchestrator.NewWorkerPool(0)
	workerPool.Start()

	orch := orchestrator.New(workerPool, publisher, orchestrator.Options{
		StageTimeout:      cfg.StageTimeout,
		CompletionDelay:   cfg.CompletionDelay,
		ThumbnailLongEdge: cfg.ThumbnailLongEdge,
	})
	taskQueue := queue.New(orch, publisher, cfg.HistoryLimit)

	fetchers := factory.NewFetcherFactory(cfg)
	httpFetcher, err := fetchers.CreateFetcher(factory.HTTPFetcher)
	if err != nil {
		return nil, fmt.Errorf("failed to configure http storage: %w", err)
	}
	var blobFetcher storage.ImageFetcher
	if cfg.AzureConfigured() {
		blobFetcher, err = fetchers.CreateFetcher(factory.AzureFetcher)
		if err != nil {
			return nil, fmt.Errorf("failed to configure azure storage: %w", err)
		}
	}

	imageRepository := repository.NewRoutingImageRepository(httpFetcher, blobFetcher)
	analysisService := service.NewCompositionAnalysisService(imageRepository, taskQueue)
	handler := transport.NewHandler(analysisService, taskQueue, metrics, cfg)

	return &Container{
		config:          cfg,
		publisher:       publisher,
		metrics:         metrics,
		workerPool:      workerPool,
		orchestrator:    orch,
		taskQueue:       taskQueue,
		imageRepository: imageRepository,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Queue returns the analysis queue
func (c *Container) Queue() *queue.Queue {
	return c.taskQueue
}

// Publisher returns the event publisher
func (c *Container) Publisher() *observer.EventPublisher {
	return c.publisher
}

// Close releases background resources
func (c *Container) Close() {
	c.taskQueue.Close()
	c.workerPool.Close()
}
