// Package sqlstore implements the dashboard stores on a relational database
// through gorm. Postgres, MySQL and SQLite are supported.
package sqlstore

import (
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"    // mysql
	_ "github.com/jinzhu/gorm/dialects/postgres" // postgres
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // sqlite3
	"github.com/rs/zerolog"
)

// Supported dialects.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite3"
)

// Options describes the database connection.
type Options struct {
	Dialect  string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	// Path is the database file for sqlite3.
	Path  string
	Debug bool
}

// DSN builds the connection string for the configured dialect.
func (o Options) DSN() (string, error) {
	switch o.Dialect {
	case DialectPostgres:
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable password=%s",
			o.Host, o.Port, o.User, o.Name, o.Password), nil
	case DialectMySQL:
		cfg := mysql.NewConfig()
		cfg.User = o.User
		cfg.Passwd = o.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
		cfg.DBName = o.Name
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	case DialectSQLite:
		if o.Path == "" {
			return "", fmt.Errorf("DSN: sqlite3 requires a path")
		}
		return o.Path, nil
	}
	return "", fmt.Errorf("DSN: unsupported dialect %q", o.Dialect)
}

// Store implements store.Repository with gorm.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the database described by opts.
func Open(opts Options, log zerolog.Logger) (*Store, error) {
	dsn, err := opts.DSN()
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	db, err := gorm.Open(opts.Dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: connecting to %s database %q: %w", opts.Dialect, opts.Name, err)
	}
	if opts.Debug {
		db = db.Debug()
	}
	log.Info().Str("dialect", opts.Dialect).Str("database", opts.Name).Msg("Connected to database")
	return New(db, log), nil
}

// New wraps an open gorm connection.
func New(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "sqlstore").Logger()}
}

// AutoMigrate creates or updates the dashboard tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(models()...).Error; err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
