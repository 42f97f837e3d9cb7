package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/cache"
	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/metrics"
	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/notify"
	"example.com/backstage/services/commerce/internal/payment"
	"example.com/backstage/services/commerce/internal/repository"
	"example.com/backstage/services/commerce/internal/search"

	"github.com/sirupsen/logrus"
)

// Service defines the business logic operations
type Service interface {
	// Catalog
	ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error)
	UpsertProduct(ctx context.Context, product *models.Product) error

	// Finished-goods ledger
	ListInventory(ctx context.Context) ([]*models.InventoryEntry, error)
	SetStock(ctx context.Context, productID, size string, quantity int64) (*models.InventoryEntry, error)

	// Orders
	QuoteOrder(ctx context.Context, items []CartItem) (*Quote, error)
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	VerifyOnlineCheckout(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	FieldSale(ctx context.Context, input FieldSaleInput) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*models.Order, error)
	SearchOrders(ctx context.Context, text string, limit int) ([]map[string]interface{}, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)

	// Raw materials and manufacturing
	AddMaterial(ctx context.Context, input AddMaterialInput) (*models.RawMaterial, error)
	LogIntake(ctx context.Context, input IntakeInput) (*models.MaterialIntake, error)
	ListMaterials(ctx context.Context) ([]*models.RawMaterial, error)
	ListIntakes(ctx context.Context, materialID string, limit int) ([]*models.MaterialIntake, error)
	LogProduction(ctx context.Context, input ProductionInput) (*models.ProductionRun, error)
	ListProductionRuns(ctx context.Context, limit int) ([]*models.ProductionRun, error)

	// Referrals
	CreateReferral(ctx context.Context, input ReferralInput) (*models.Referral, string, error)
	ResolveReferral(ctx context.Context, code string) (string, error)

	// Asynchronous work
	HandleEvent(ctx context.Context, event messaging.Event) error
	SendInventoryReport(ctx context.Context) error

	// Close waits for post-commit side effects still in flight.
	Close() error
}

// service is an implementation of the Service interface
type service struct {
	repo      repository.Repository
	cache     cache.Cache
	publisher messaging.Publisher
	gateway   payment.Gateway
	poller    *payment.Poller
	mailer    notify.Mailer
	indexer   search.Indexer
	metrics   *metrics.Metrics
	log       *logrus.Logger

	app               config.AppConfig
	reports           config.ReportsConfig
	cacheTTL          time.Duration
	sideEffectTimeout time.Duration

	wg sync.WaitGroup
}

// ServiceConfig holds the dependencies of the service
type ServiceConfig struct {
	Repository repository.Repository
	Cache      cache.Cache
	Publisher  messaging.Publisher
	Gateway    payment.Gateway
	Poller     *payment.Poller
	Mailer     notify.Mailer
	Indexer    search.Indexer
	Metrics    *metrics.Metrics
	Logger     *logrus.Logger

	App               config.AppConfig
	Reports           config.ReportsConfig
	CacheTTL          time.Duration
	SideEffectTimeout time.Duration
}

// NewService creates a new service instance
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Publisher == nil {
		return nil, errors.New("event publisher is required")
	}
	if cfg.Gateway == nil {
		return nil, errors.New("payment gateway is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Cache == nil {
		disabled, _ := cache.NewRedisCache(config.RedisConfig{Enabled: false})
		cfg.Cache = disabled
	}
	if cfg.Poller == nil {
		cfg.Poller = payment.NewPoller(cfg.Gateway, 6*time.Second, 10, cfg.Metrics, cfg.Logger)
	}
	if cfg.App.OrderRetries <= 0 {
		cfg.App.OrderRetries = 3
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = 30 * time.Second
	}

	return &service{
		repo:              cfg.Repository,
		cache:             cfg.Cache,
		publisher:         cfg.Publisher,
		gateway:           cfg.Gateway,
		poller:            cfg.Poller,
		mailer:            cfg.Mailer,
		indexer:           cfg.Indexer,
		metrics:           cfg.Metrics,
		log:               cfg.Logger,
		app:               cfg.App,
		reports:           cfg.Reports,
		cacheTTL:          cfg.CacheTTL,
		sideEffectTimeout: cfg.SideEffectTimeout,
	}, nil
}

// background runs fn after the caller's transaction has committed. Its
// failure is logged and never reaches the caller.
func (s *service) background(task string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.sideEffectTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.WithFields(logrus.Fields{
				"task":  task,
				"error": err.Error(),
			}).Warn("Background task failed")
		}
	}()
}

func (s *service) publish(event messaging.Event) {
	s.background("publish "+string(event.Type), func(ctx context.Context) error {
		err := s.publisher.Publish(ctx, event)
		s.metrics.RecordEventPublished(string(event.Type), err == nil)
		return err
	})
}

// retry runs fn until it succeeds, fails with a non-retryable error or
// uses up the configured attempts.
func (s *service) retry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.app.OrderRetries; attempt++ {
		if err = fn(); err == nil || !repository.IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		s.metrics.RecordTransactionRetry(operation)
		s.log.WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt,
			"error":     err.Error(),
		}).Warn("Transaction conflict, retrying")
	}
	return err
}

func (s *service) Close() error {
	s.wg.Wait()
	return nil
}
