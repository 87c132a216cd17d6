package helper

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
)

// Database bundles a live connection pool with the logger every handler in
// the core threads through.
type Database struct {
	Instance *sql.DB
	Logger   *slog.Logger
}

// DatabaseConfiguration is the connection info loaded from the environment.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration builds a DatabaseConfiguration from environment
// variables, defaulting schema and SSL mode when unset.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	config := &DatabaseConfiguration{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: os.Getenv("DB_NAME"),
		Username: os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Schema:   os.Getenv("DB_SCHEMA"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}

	if config.Host == "" {
		return nil, NewError("database configuration", fmt.Errorf("DB_HOST is required"))
	}
	if config.Database == "" {
		return nil, NewError("database configuration", fmt.Errorf("DB_NAME is required"))
	}
	if config.Username == "" {
		return nil, NewError("database configuration", fmt.Errorf("DB_USER is required"))
	}

	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config, nil
}

func (c *DatabaseConfiguration) connectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode, c.Schema,
	)
}

// NewDatabase opens the connection pool identified by appName and attaches
// logger to every handler built on top of it.
func NewDatabase(appName string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	instance, err := sql.Open("postgres", config.connectionString())
	if err != nil {
		return nil, NewError("open database", err)
	}

	if err := instance.Ping(); err != nil {
		return nil, NewError("ping database", err)
	}

	logger.Info("connected to database", slog.String("app", appName), slog.String("database", config.Database))

	return &Database{
		Instance: instance,
		Logger:   logger,
	}, nil
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	return d.Instance.Close()
}
