package database

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"matrixnotes/internal/note/repository"
	"matrixnotes/pkg/logger"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connect opens the configured database. DB_DRIVER selects between
// postgres (the default) and an embedded sqlite file for local runs.
func Connect() *sql.DB {
	if strings.TrimSpace(os.Getenv("DB_DRIVER")) == "sqlite" {
		return connectSQLite()
	}
	return connectPostgres()
}

func connectPostgres() *sql.DB {
	dbUser := strings.TrimSpace(os.Getenv("user"))
	dbPass := strings.TrimSpace(os.Getenv("password"))
	dbHost := strings.TrimSpace(os.Getenv("host"))
	dbPort := strings.TrimSpace(os.Getenv("port"))
	dbName := strings.TrimSpace(os.Getenv("dbname"))

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=require", dbUser, dbPass, dbHost, dbPort, dbName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open database connection: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db
		}
		logger.Sugar.Infof("Database connection failed, retrying in 2s... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	logger.Sugar.Fatal("Could not connect to database after retries")
	return nil
}

func connectSQLite() *sql.DB {
	path := strings.TrimSpace(os.Getenv("DB_PATH"))
	if path == "" {
		path = "matrixnotes.db"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open sqlite database %s: %v", path, err)
	}
	if err := repository.EnsureSchema(db); err != nil {
		logger.Sugar.Fatalf("Failed to create schema in %s: %v", path, err)
	}
	logger.Sugar.Infof("Using embedded sqlite database at %s", path)
	return db
}
