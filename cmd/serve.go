package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/backstage/services/commerce/api"
	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/database"
	"example.com/backstage/services/commerce/internal/metrics"
	"example.com/backstage/services/commerce/internal/tracing"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Serve command flags
	disableNewRelic bool
	serverPort      int
	gracefulTimeout int
	skipMigrations  bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the commerce API server that handles checkout verification,
field sales, the back-office ledgers and referral redirects.

The server respects the configuration in config.yaml or specified via the --config flag.
It will gracefully shut down on receiving SIGINT or SIGTERM signals.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&disableNewRelic, "disable-newrelic", false, "Disable New Relic monitoring")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Server port (overrides config file)")
	serveCmd.Flags().IntVar(&gracefulTimeout, "graceful-timeout", 30, "Graceful shutdown timeout in seconds")
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not migrate the schema on startup")
}

// startServer initializes and starts the API server
func startServer() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override config with command line flags if provided
	if serverPort > 0 {
		cfg.Server.Port = serverPort
	}
	if disableNewRelic {
		cfg.NewRelic.Enabled = false
	}

	log.WithFields(logrus.Fields{
		"port":             cfg.Server.Port,
		"newrelic_enabled": cfg.NewRelic.Enabled,
		"servicebus":       cfg.ServiceBus.ConnectionString != "",
	}).Info("Initializing service components...")

	// Initialize metrics and New Relic
	m := metrics.NewMetrics(metricsNamespace)

	tracer, err := tracing.NewTracer(cfg.NewRelic, log)
	if err != nil {
		log.Warnf("Failed to initialize New Relic: %v", err)
	} else {
		defer tracer.Close()
	}

	// Connect to the database, cache and broker and build the service layer
	comps, err := buildComponents(cfg, m, newIndexer(cfg.Elastic))
	if err != nil {
		log.Fatalf("Failed to initialize service components: %v", err)
	}
	defer comps.close()

	if !skipMigrations {
		log.Info("Running database migrations...")
		if err := database.AutoMigrate(comps.db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		log.Info("Database migrations completed successfully")
	}

	var nrApp *newrelic.Application
	if tracer != nil {
		nrApp = tracer.Application()
	}

	log.Info("Initializing API server...")
	server, err := api.NewServer(cfg, log, nrApp, comps.svc, m)
	if err != nil {
		log.Fatalf("Failed to initialize API server: %v", err)
	}

	// Set up graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-stop
	log.Infof("Received signal %s, shutting down gracefully...", sig.String())

	// Create a timeout context for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(gracefulTimeout)*time.Second)
	defer cancel()

	log.Info("Shutting down HTTP server...")
	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("Server shutdown error: %v", err)
	}

	log.Info("Server shutdown complete")
}
