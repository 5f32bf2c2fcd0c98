// Package database manages the connection to the observations store and the
// queries the pipeline runs against it. SQLite and PostgreSQL are both
// supported; the connection string decides which driver is used.
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/weather"
	"go.uber.org/zap"
)

// Client holds the connection to the observations database
type Client struct {
	connectionString string
	DB               *gorm.DB // Exported so it can be accessed from other packages
	logger           *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(connectionString string, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
	}
}

// Connect opens the database connection and migrates the observations table
func (c *Client) Connect() error {
	var err error

	c.DB, err = CreateConnection(c.connectionString)
	if err != nil {
		return err
	}

	if err := c.DB.AutoMigrate(&weather.Observation{}); err != nil {
		return fmt.Errorf("error creating or migrating observations table: %w", err)
	}

	return nil
}

// CreateConnection is a helper function to create a database connection with
// standard GORM configuration. Connection strings beginning with postgres://
// or postgresql:// use the PostgreSQL driver; anything else is treated as a
// SQLite file path.
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Use colors
		},
	)

	config := &gorm.Config{Logger: dbLogger}

	var dialector gorm.Dialector
	if strings.HasPrefix(connectionString, "postgres://") || strings.HasPrefix(connectionString, "postgresql://") {
		log.Info("connecting to PostgreSQL...")
		dialector = postgres.Open(connectionString)
	} else {
		log.Infof("connecting to SQLite at %s...", connectionString)
		dialector = sqlite.Open(connectionString)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		log.Warn("warning: unable to create a database connection:", err)
		return nil, err
	}

	return db, nil
}
