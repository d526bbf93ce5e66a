package migrations_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/msomdec/birthday-bot/internal/domain"
	"github.com/msomdec/birthday-bot/internal/migrations"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first migration run: %v", err)
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO birthdays (user_id, month, day) VALUES (?, ?, ?)", "U1", "March", 5,
	); err != nil {
		t.Fatalf("insert into birthdays: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?)", "manager", "U1",
	); err != nil {
		t.Fatalf("insert into settings: %v", err)
	}
}

func TestBirthdayDayRequiresMonth(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("run: %v", err)
	}

	_, err := db.ExecContext(ctx, "INSERT INTO birthdays (user_id, day) VALUES (?, ?)", "U1", 5)
	if err == nil {
		t.Fatal("expected check constraint violation for a day without a month")
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("second run (idempotent): %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 migration records, got %d", count)
	}
}

func TestApplyReportsNewMigrationsOnly(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER PRIMARY KEY);")},
		"notes.txt": {Data: []byte("ignored")},
	}
	applied, err := migrations.Apply(ctx, db, fsys)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if diff := cmp.Diff([]string{"001_a.sql"}, applied); diff != "" {
		t.Fatalf("applied mismatch (-want +got):\n%s", diff)
	}

	fsys["002_b.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE b (id INTEGER PRIMARY KEY);")}
	applied, err = migrations.Apply(ctx, db, fsys)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if diff := cmp.Diff([]string{"002_b.sql"}, applied); diff != "" {
		t.Fatalf("applied mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRejectsEditedMigration(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	fsys := fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER PRIMARY KEY);")}}
	if _, err := migrations.Apply(ctx, db, fsys); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	fsys["001_a.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE a (id TEXT PRIMARY KEY);")}
	_, err := migrations.Apply(ctx, db, fsys)
	if !errors.Is(err, domain.ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
}
