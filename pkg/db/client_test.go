package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID    int
	Name  string `gorm:"uniqueIndex"`
	Units int    `gorm:"check:units_non_negative,units >= 0"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:dbclient_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := Wrap(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if client.Driver() != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", client.Driver())
	}
}

func TestConstraintHelpersOnSQLite(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&testModel{Name: "a"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	dup := db.Create(&testModel{Name: "a"}).Error
	if !IsUniqueViolation(dup, "") {
		t.Fatalf("expected unique violation, got %v", dup)
	}

	neg := db.Create(&testModel{Name: "b", Units: -1}).Error
	if !IsCheckViolation(neg) {
		t.Fatalf("expected check violation, got %v", neg)
	}
}

func TestConstraintHelpersOnPgError(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "donors_email_key"})
	if !IsUniqueViolation(unique, "donors_email_key") {
		t.Fatalf("expected unique violation match")
	}
	if IsUniqueViolation(unique, "other_key") {
		t.Fatalf("constraint name should be compared")
	}
	check := &pgconn.PgError{Code: "23514"}
	if !IsCheckViolation(check) || IsUniqueViolation(check, "") {
		t.Fatalf("check violation misclassified")
	}
	if IsCheckViolation(nil) || IsUniqueViolation(nil, "") {
		t.Fatalf("nil must not match")
	}
}

func TestContainsPattern(t *testing.T) {
	cases := map[string]string{
		"Jane":    "%jane%",
		" ab- ":   "%ab-%",
		"50%_off": `%50\%\_off%`,
		`a\b`:     `%a\\b%`,
	}
	for in, want := range cases {
		if got := ContainsPattern(in); got != want {
			t.Fatalf("ContainsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
