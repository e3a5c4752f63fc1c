// Package database persists observations, summaries and ingest runs in PostgreSQL.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/wxsummary/internal/log"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for a duplicate key.
const uniqueViolation = "23505"

// Client holds the connection to the summary database
type Client struct {
	DB *gorm.DB
}

// NewClient wraps an open gorm connection.
func NewClient(db *gorm.DB) *Client {
	return &Client{DB: db}
}

// Connect opens a connection to connectionString and returns a Client for it.
func Connect(connectionString string) (*Client, error) {
	db, err := CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}
	return NewClient(db), nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		log.StdLog(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warnf("unable to create a PostgreSQL connection: %v", err)
		return nil, err
	}
	log.Info("PostgreSQL connection successful")

	return db, nil
}

// CreateTables creates or migrates every table the summary store uses.
func (c *Client) CreateTables() error {
	tables := []struct {
		name  string
		model any
	}{
		{"hourly observation", &HourlyObservationRecord{}},
		{"daily record", &DailyRecord{}},
		{"monthly summary", &MonthlySummaryRecord{}},
		{"yearly summary", &YearlySummaryRecord{}},
		{"ingest run", &IngestRunRecord{}},
	}

	for _, t := range tables {
		if err := c.DB.AutoMigrate(t.model); err != nil {
			return fmt.Errorf("error creating or migrating %s database table: %w", t.name, err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// isUniqueViolation reports whether err is PostgreSQL rejecting a duplicate key,
// which happens when a concurrent writer inserts the same natural key first.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// transaction runs fn in a transaction. If the commit loses a race on a natural
// key the whole transaction is replayed once; the replay finds the competing row
// and updates it.
func (c *Client) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := c.DB.WithContext(ctx).Transaction(fn)
	if isUniqueViolation(err) {
		log.Debugf("retrying transaction after unique violation: %v", err)
		err = c.DB.WithContext(ctx).Transaction(fn)
	}
	return err
}

// keyed is implemented by every record upserted by natural key.
type keyed[T any] interface {
	*T
	base() *gorm.Model
}

// upsert creates rec, or overwrites the row matching query with rec's values
// while keeping that row's identity.
func upsert[T any, PT keyed[T]](tx *gorm.DB, rec PT, query string, args ...any) error {
	var existing T
	err := tx.Where(query, args...).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.Create(rec).Error
	case err != nil:
		return err
	}

	found := PT(&existing).base()
	rec.base().ID = found.ID
	rec.base().CreatedAt = found.CreatedAt
	return tx.Save(rec).Error
}
