package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ServiceBus ServiceBusConfig
	Elastic    ElasticConfig
	NewRelic   NewRelicConfig
	Paystack   PaystackConfig
	ZeptoMail  ZeptoMailConfig
	App        AppConfig
	Reports    ReportsConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port int
	Mode string // debug, release, test
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	LogLevel string
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// ServiceBusConfig holds the Azure Service Bus configuration.
// An empty connection string keeps event delivery in-process.
type ServiceBusConfig struct {
	ConnectionString string
	QueueName        string
}

// ElasticConfig holds the Elasticsearch configuration
type ElasticConfig struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// PaystackConfig holds the payment gateway configuration
type PaystackConfig struct {
	SecretKey    string
	BaseURL      string
	Provider     string
	PollInterval time.Duration
	PollAttempts int
	Timeout      time.Duration
}

// ZeptoMailConfig holds the transactional email configuration
type ZeptoMailConfig struct {
	Token       string
	BaseURL     string
	FromAddress string
	FromName    string
	Timeout     time.Duration
}

// AppConfig holds application level settings
type AppConfig struct {
	PublicBaseURL string
	AdminEmail    string
	AdminAPIKey   string
	OrderRetries  int
}

// ReportsConfig controls the scheduled inventory report
type ReportsConfig struct {
	Enabled           bool
	Interval          time.Duration
	LowStockThreshold int64
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/commerce-service")
		viper.SetConfigName("config")
	}

	// LUNA_PAYSTACK_SECRETKEY overrides paystack.secretkey
	viper.SetEnvPrefix("LUNA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("No config file found, using defaults and environment variables")
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "luna")
	viper.SetDefault("database.password", "luna")
	viper.SetDefault("database.dbname", "luna_commerce")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.loglevel", "warn")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", 10*time.Minute)

	// no default connection string for security
	viper.SetDefault("servicebus.queuename", "commerce-events")

	viper.SetDefault("elastic.indexprefix", "luna")

	viper.SetDefault("newrelic.appname", "Commerce Service Local")
	viper.SetDefault("newrelic.enabled", false)

	viper.SetDefault("paystack.baseurl", "https://api.paystack.co")
	viper.SetDefault("paystack.provider", "mpesa")
	viper.SetDefault("paystack.pollinterval", 6*time.Second)
	viper.SetDefault("paystack.pollattempts", 10)
	viper.SetDefault("paystack.timeout", 15*time.Second)

	viper.SetDefault("zeptomail.baseurl", "https://api.zeptomail.com/v1.1")
	viper.SetDefault("zeptomail.fromname", "Luna")
	viper.SetDefault("zeptomail.timeout", 15*time.Second)

	viper.SetDefault("app.publicbaseurl", "http://localhost:8080")
	viper.SetDefault("app.orderretries", 3)

	viper.SetDefault("reports.enabled", true)
	viper.SetDefault("reports.interval", 24*time.Hour)
	viper.SetDefault("reports.lowstockthreshold", 10)
}

// Load loads the configuration
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("server.port"),
			Mode: viper.GetString("server.mode"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("database.host"),
			Port:     viper.GetInt("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.dbname"),
			SSLMode:  viper.GetString("database.sslmode"),
			LogLevel: viper.GetString("database.loglevel"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetInt("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
			TTL:      viper.GetDuration("redis.ttl"),
		},
		ServiceBus: ServiceBusConfig{
			ConnectionString: viper.GetString("servicebus.connectionstring"),
			QueueName:        viper.GetString("servicebus.queuename"),
		},
		Elastic: ElasticConfig{
			URL:         viper.GetString("elastic.url"),
			Username:    viper.GetString("elastic.username"),
			Password:    viper.GetString("elastic.password"),
			IndexPrefix: viper.GetString("elastic.indexprefix"),
		},
		NewRelic: NewRelicConfig{
			AppName:    viper.GetString("newrelic.appname"),
			LicenseKey: viper.GetString("newrelic.licensekey"),
			Enabled:    viper.GetBool("newrelic.enabled"),
		},
		Paystack: PaystackConfig{
			SecretKey:    viper.GetString("paystack.secretkey"),
			BaseURL:      viper.GetString("paystack.baseurl"),
			Provider:     viper.GetString("paystack.provider"),
			PollInterval: viper.GetDuration("paystack.pollinterval"),
			PollAttempts: viper.GetInt("paystack.pollattempts"),
			Timeout:      viper.GetDuration("paystack.timeout"),
		},
		ZeptoMail: ZeptoMailConfig{
			Token:       viper.GetString("zeptomail.token"),
			BaseURL:     viper.GetString("zeptomail.baseurl"),
			FromAddress: viper.GetString("zeptomail.fromaddress"),
			FromName:    viper.GetString("zeptomail.fromname"),
			Timeout:     viper.GetDuration("zeptomail.timeout"),
		},
		App: AppConfig{
			PublicBaseURL: strings.TrimRight(viper.GetString("app.publicbaseurl"), "/"),
			AdminEmail:    viper.GetString("app.adminemail"),
			AdminAPIKey:   viper.GetString("app.adminapikey"),
			OrderRetries:  viper.GetInt("app.orderretries"),
		},
		Reports: ReportsConfig{
			Enabled:           viper.GetBool("reports.enabled"),
			Interval:          viper.GetDuration("reports.interval"),
			LowStockThreshold: viper.GetInt64("reports.lowstockthreshold"),
		},
	}

	if cfg.Paystack.PollAttempts <= 0 {
		return nil, fmt.Errorf("paystack.pollattempts must be positive, got %d", cfg.Paystack.PollAttempts)
	}
	if cfg.Paystack.PollInterval < 0 {
		return nil, fmt.Errorf("paystack.pollinterval must not be negative")
	}
	if cfg.Reports.Enabled && cfg.Reports.Interval <= 0 {
		return nil, fmt.Errorf("reports.interval must be positive when reports are enabled, got %s", cfg.Reports.Interval)
	}
	if cfg.App.OrderRetries <= 0 {
		cfg.App.OrderRetries = 1
	}

	return cfg, nil
}

// MissingSecrets lists the external-service secrets that are not configured.
// Callers log these at startup; each client still refuses to call out without its secret.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if c.Paystack.SecretKey == "" {
		missing = append(missing, "paystack.secretkey")
	}
	if c.ZeptoMail.Token == "" {
		missing = append(missing, "zeptomail.token")
	}
	return missing
}
