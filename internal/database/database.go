// Package database opens the GORM handle for the configured dialect and
// keeps the users table in step with the declared schema.
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"userapi/internal/config"
	"userapi/internal/models"
)

const (
	defaultPostgresPort = 5432
	defaultMySQLPort    = 3306
)

var dialectorFor = newDialector

// Connect opens a handle for cfg. The pool is lazy: reachability and
// credentials are checked by Verify.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, &ConnectionError{Dialect: cfg.Dialect, Err: err}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               NewLogger(log.Logger, cfg),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, &ConnectionError{Dialect: cfg.Dialect, Err: err}
	}

	log.Debug().Str("dialect", cfg.Dialect).Str("database", cfg.Name).Msg("database handle opened")
	return db, nil
}

// Verify confirms the store is reachable.
func Verify(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return &ConnectionError{Dialect: db.Dialector.Name(), Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &ConnectionError{Dialect: db.Dialector.Name(), Err: err}
	}
	return nil
}

// Synchronize creates the users table and any missing columns. It never
// drops or rewrites existing data.
func Synchronize(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.User{}); err != nil {
		return &SchemaError{Err: err}
	}
	return nil
}

// Bootstrap verifies the connection and then synchronizes the schema.
func Bootstrap(ctx context.Context, db *gorm.DB) error {
	if err := Verify(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("Connection has been established successfully")

	if err := Synchronize(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("All models were synchronized successfully")
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Dialect {
	case config.DialectPostgres:
		return postgres.Open(postgresDSN(cfg)), nil
	case config.DialectMySQL:
		return mysql.Open(mysqlDSN(cfg)), nil
	case config.DialectSQLite:
		return sqlite.Open(cfg.Name), nil
	default:
		return nil, fmt.Errorf("unsupported database dialect: %q", cfg.Dialect)
	}
}

func postgresDSN(cfg config.DatabaseConfig) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPostgresPort
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Path:   cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	port := cfg.Port
	if port == 0 {
		port = defaultMySQLPort
	}

	dsn := mysqldriver.NewConfig()
	dsn.User = cfg.Username
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	dsn.DBName = cfg.Name
	dsn.ParseTime = true
	// Report matched rather than changed rows so an update that writes
	// identical values is not mistaken for a missing record.
	dsn.ClientFoundRows = true
	return dsn.FormatDSN()
}
