// Package dbtest opens throwaway sqlite databases with the full schema for package tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db"
	"github.com/angelmondragon/bloodbank-backend/pkg/migrate"
)

// DefaultThreshold is the low-stock threshold seeded for every group.
const DefaultThreshold = 10

// Open returns a client over a private in-memory database, migrated and seeded.
// The pool is pinned to one connection so transactions serialise like they would
// on a single postgres row.
func Open(t testing.TB) *db.Client {
	t.Helper()
	dsn := "file:bloodbank_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.AutoMigrateSQLite(context.Background(), conn, DefaultThreshold); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db.Wrap(conn)
}
