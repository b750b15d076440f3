package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"remindful/config"
	"remindful/database/migrations"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// LocalDB is the global handle to the on-device reminder store.
var LocalDB *sql.DB

// RunMigrations applies the embedded schema migrations to the local store.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// InitLocalDB opens the SQLite store and applies pending migrations.
func InitLocalDB() {
	db, err := sql.Open("sqlite", config.AppConfig.LocalDBPath)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	// modernc sqlite rejects concurrent writers with SQLITE_BUSY; a single
	// pooled connection serializes the HTTP surface, sync loop and workers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := RunMigrations(ctx, db); err != nil {
		log.Fatalf("failed to migrate local store: %v", err)
	}

	LocalDB = db
	log.Println("Local store ready")
}
