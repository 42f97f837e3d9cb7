package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/metrics"
	"example.com/backstage/services/commerce/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker that consumes order and production events from
Azure Service Bus and mails the scheduled inventory report.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.NewRelic, log)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize tracer, continuing without tracing")
		tracer, _ = tracing.NewTracer(config.NewRelicConfig{}, log)
	}
	defer tracer.Close()

	// Initialize metrics
	m := metrics.NewMetrics(metricsNamespace)

	// Initialize services
	comps, err := buildComponents(cfg, m, newIndexer(cfg.Elastic))
	if err != nil {
		return err
	}
	defer comps.close()

	handle := func(ctx context.Context, event messaging.Event) error {
		ctx, txn := tracer.StartTransaction(ctx, "event/"+string(event.Type))
		defer txn.End()
		tracer.AddAttribute(ctx, "aggregate_id", event.AggregateID)

		err := comps.svc.HandleEvent(ctx, event)
		if err != nil {
			tracer.RecordError(ctx, err)
		}
		return err
	}

	if cfg.ServiceBus.ConnectionString != "" {
		consumer, err := messaging.NewServiceBusConsumer(cfg.ServiceBus, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				log.WithError(err).Error("Error closing Service Bus consumer")
			}
		}()

		g.Go(func() error {
			log.WithField("queue", cfg.ServiceBus.QueueName).Info("Starting Azure Service Bus processor")
			return consumer.Run(ctx, handle)
		})
	} else {
		log.Warn("No Service Bus configured, the worker only runs scheduled jobs")
	}

	if cfg.Reports.Enabled {
		g.Go(func() error {
			log.WithField("interval", cfg.Reports.Interval.String()).Info("Starting inventory report job")

			scheduler, err := gocron.NewScheduler()
			if err != nil {
				return errors.Wrap(err, "failed to create scheduler")
			}

			_, err = scheduler.NewJob(
				gocron.DurationJob(cfg.Reports.Interval),
				gocron.NewTask(func() {
					jobCtx, txn := tracer.StartTransaction(ctx, "job/inventory-report")
					defer txn.End()

					if err := comps.svc.SendInventoryReport(jobCtx); err != nil {
						tracer.RecordError(jobCtx, err)
						log.WithError(err).Error("Failed to send inventory report")
					}
				}),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				return errors.Wrap(err, "failed to schedule inventory report")
			}

			// Start the scheduler
			scheduler.Start()

			// Wait for context cancellation
			<-ctx.Done()

			// Shutdown the scheduler
			return scheduler.Shutdown()
		})
	}

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Worker error")
		return err
	}

	log.Info("Worker shutting down gracefully")
	return nil
}
