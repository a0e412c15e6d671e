package database

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/docuflow/backend/pkg/constants"
)

// MySQLConnection wraps the process-wide connection pool.
// Note: sql.DB is already thread-safe and manages its own connection pool.
// We do NOT wrap it with additional mutexes as that causes deadlocks under
// high concurrency (writers waiting for connections block readers).
type MySQLConnection struct {
	db *sql.DB
}

var (
	instance *MySQLConnection
	once     sync.Once
	initErr  error
)

// GetInstance returns the singleton MySQL connection
func GetInstance() (*MySQLConnection, error) {
	once.Do(func() {
		instance, initErr = newConnection()
	})
	return instance, initErr
}

func newConnection() (*MySQLConnection, error) {
	host := os.Getenv(constants.EnvDBHost)
	port := os.Getenv(constants.EnvDBPort)
	user := os.Getenv(constants.EnvDBUser)
	password := os.Getenv(constants.EnvDBPassword)
	name := os.Getenv(constants.EnvDBDatabase)

	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	if name == "" {
		name = "docuflow"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, password, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns must equal MaxOpenConns to prevent port exhaustion:
	// a smaller idle pool churns connections under concurrency
	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(100)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLConnection{db: db}, nil
}

// DB returns the underlying *sql.DB connection
func (c *MySQLConnection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *MySQLConnection) Close() error {
	return c.db.Close()
}
