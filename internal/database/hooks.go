package database

import (
	"time"

	"example.com/backstage/services/commerce/internal/metrics"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// RegisterMetricsHooks records the latency and outcome of every statement.
func RegisterMetricsHooks(db *gorm.DB, collector *metrics.Metrics) error {
	cb := db.Callback()

	befores := []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", markStart),
		cb.Query().Before("gorm:query").Register("metrics:before_query", markStart),
		cb.Update().Before("gorm:update").Register("metrics:before_update", markStart),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", markStart),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", markStart),
	}
	for _, err := range befores {
		if err != nil {
			return err
		}
	}

	record := func(queryType string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			collector.RecordDatabaseQuery(queryType, tx.Error == nil, elapsed(tx))
		}
	}

	if err := cb.Create().After("gorm:create").Register("metrics:create", record(metrics.DBQueryTypeInsert)); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:query", record(metrics.DBQueryTypeSelect)); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:update", record(metrics.DBQueryTypeUpdate)); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:delete", record(metrics.DBQueryTypeDelete)); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("metrics:raw", record(metrics.DBQueryTypeRaw))
}

func markStart(tx *gorm.DB) {
	tx.InstanceSet(startTimeKey, time.Now())
}

func elapsed(tx *gorm.DB) time.Duration {
	if start, ok := tx.InstanceGet(startTimeKey); ok {
		return time.Since(start.(time.Time))
	}
	return 0
}
