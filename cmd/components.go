package cmd

import (
	"time"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/cache"
	"example.com/backstage/services/commerce/internal/database"
	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/metrics"
	"example.com/backstage/services/commerce/internal/notify"
	"example.com/backstage/services/commerce/internal/payment"
	"example.com/backstage/services/commerce/internal/repository"
	"example.com/backstage/services/commerce/internal/search"
	"example.com/backstage/services/commerce/internal/service"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const metricsNamespace = "luna_commerce"

// components holds everything a command needs to run the service layer.
type components struct {
	db        database.DB
	cache     *cache.RedisCache
	publisher messaging.Publisher
	local     *messaging.LocalPublisher
	svc       service.Service
}

// close releases components in reverse order of construction
func (c *components) close() {
	if c.svc != nil {
		if err := c.svc.Close(); err != nil {
			log.WithError(err).Warn("Error waiting for side effects")
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			log.WithError(err).Error("Error closing event publisher")
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			log.WithError(err).Error("Error closing Redis connection")
		}
	}
	if c.db != nil {
		log.Info("Closing database connection...")
		if err := c.db.Close(); err != nil {
			log.WithError(err).Error("Error closing database connection")
		}
	}
}

// connectDatabase retries with exponential backoff so the service can start
// alongside its database.
func connectDatabase(cfg config.DatabaseConfig, m *metrics.Metrics) (database.DB, error) {
	var (
		db  database.DB
		err error
	)
	maxRetries := 5
	retryInterval := time.Second

	for i := 0; i < maxRetries; i++ {
		log.WithField("attempt", i+1).Info("Connecting to database...")
		db, err = database.Connect(cfg)
		if err == nil {
			break
		}

		log.WithFields(logrus.Fields{
			"error":         err.Error(),
			"retry_attempt": i + 1,
			"max_retries":   maxRetries,
		}).Error("Failed to connect to database, retrying...")

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to database after %d attempts", maxRetries)
	}

	gormDB, err := db.DB()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := database.RegisterMetricsHooks(gormDB, m); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to register database metrics hooks")
	}
	return db, nil
}

// buildComponents wires the service layer. With no Service Bus connection
// string, events are handled in-process by the same service.
func buildComponents(cfg *config.Config, m *metrics.Metrics, indexer search.Indexer) (*components, error) {
	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		log.WithField("settings", missing).Warn("External service secrets are not configured; the affected operations will fail")
	}

	c := &components{}

	db, err := connectDatabase(cfg.Database, m)
	if err != nil {
		return nil, err
	}
	c.db = db

	if cfg.Redis.Enabled {
		log.Info("Connecting to Redis...")
	}
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, continuing without caching")
		redisCache, _ = cache.NewRedisCache(config.RedisConfig{})
	}
	c.cache = redisCache

	if cfg.ServiceBus.ConnectionString != "" {
		log.WithField("queue", cfg.ServiceBus.QueueName).Info("Connecting to message broker...")
		publisher, err := messaging.NewServiceBusPublisher(cfg.ServiceBus, "commerce-service")
		if err != nil {
			c.close()
			return nil, err
		}
		c.publisher = publisher
	} else {
		log.Info("No Service Bus configured, handling events in-process")
		c.local = messaging.NewLocalPublisher(0, log)
		c.publisher = c.local
	}

	gateway := payment.NewPaystackClient(cfg.Paystack, m, log)
	svc, err := service.NewService(service.ServiceConfig{
		Repository: repository.NewRepository(db),
		Cache:      redisCache,
		Publisher:  c.publisher,
		Gateway:    gateway,
		Poller:     payment.NewPoller(gateway, cfg.Paystack.PollInterval, cfg.Paystack.PollAttempts, m, log),
		Mailer:     notify.NewZeptoMailClient(cfg.ZeptoMail, m, log),
		Indexer:    indexer,
		Metrics:    m,
		Logger:     log,
		App:        cfg.App,
		Reports:    cfg.Reports,
		CacheTTL:   cfg.Redis.TTL,
	})
	if err != nil {
		c.close()
		return nil, errors.Wrap(err, "failed to initialize service")
	}
	c.svc = svc

	if c.local != nil {
		c.local.Subscribe(svc.HandleEvent)
	}
	return c, nil
}

// newIndexer returns nil when Elasticsearch is not usable, which the service
// treats as search disabled.
func newIndexer(cfg config.ElasticConfig) search.Indexer {
	client, err := search.NewElasticClient(cfg, log)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Elasticsearch client, continuing without search functionality")
		return nil
	}
	if !client.Enabled() {
		return nil
	}
	return client
}
