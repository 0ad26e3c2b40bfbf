package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func NewDatabase(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	database := &DB{db}
	if err := database.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	log.Println("Database initialized successfully")
	return database, nil
}

func (db *DB) createTables() error {
	schema := `
	-- News sources table
	CREATE TABLE IF NOT EXISTS news_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		source_type TEXT DEFAULT 'rss',
		is_active BOOLEAN DEFAULT TRUE,
		last_fetched DATETIME,
		fetch_interval TEXT DEFAULT '3h',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- News articles table
	CREATE TABLE IF NOT EXISTS news_articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		original_content TEXT,
		summary TEXT,
		source_url TEXT UNIQUE NOT NULL,
		source_name TEXT NOT NULL,
		published_at DATETIME NOT NULL,
		status TEXT DEFAULT 'pending' CHECK (status IN ('pending', 'processing', 'published', 'failed')),
		featured BOOLEAN DEFAULT FALSE,
		view_count INTEGER DEFAULT 0,
		tags TEXT DEFAULT '[]',
		influence_score REAL,
		education_relevance REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Append-only pipeline log
	CREATE TABLE IF NOT EXISTS pipeline_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('started', 'completed', 'error')),
		message TEXT,
		details TEXT DEFAULT '{}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Indexes for better performance
	CREATE INDEX IF NOT EXISTS idx_articles_source_url ON news_articles(source_url);
	CREATE INDEX IF NOT EXISTS idx_articles_status ON news_articles(status);
	CREATE INDEX IF NOT EXISTS idx_articles_published_at ON news_articles(published_at);
	CREATE INDEX IF NOT EXISTS idx_sources_is_active ON news_sources(is_active);
	CREATE INDEX IF NOT EXISTS idx_logs_operation_status ON pipeline_logs(operation, status);
	CREATE INDEX IF NOT EXISTS idx_logs_created_at ON pipeline_logs(created_at);

	-- Users table
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		is_admin BOOLEAN DEFAULT FALSE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_login DATETIME
	);

	-- Sessions table
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`

	_, err := db.Exec(schema)
	return err
}
