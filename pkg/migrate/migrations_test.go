package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestBloodStockMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_blood_stock")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS blood_stock",
		"CHECK (units_available >= 0)",
		"CHECK (low_stock_threshold >= 0)",
		"ON CONFLICT (blood_group) DO NOTHING",
		"CREATE TABLE IF NOT EXISTS stock_events",
		"DROP TABLE IF EXISTS blood_stock",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
	for _, group := range enums.BloodGroups() {
		if !strings.Contains(content, "('"+group.String()+"', 0, 10)") {
			t.Errorf("seed row missing for %s", group)
		}
	}
}

func TestIssuanceMigrationIsOnePerRequest(t *testing.T) {
	content := readMigration(t, "create_donations_requests_issuances")
	if !strings.Contains(content, "CONSTRAINT issuances_request_id_key UNIQUE (request_id)") {
		t.Fatalf("issuances must be unique per request")
	}
}

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename error")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Donor Notes")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_donor_notes.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "-- +goose Down") || !strings.Contains(string(body), "AddDonorNotes") {
		t.Fatalf("unexpected template:\n%s", body)
	}

	if _, err := migrate.CreateSQLMigration(dir, "  --  "); err == nil {
		t.Fatalf("expected error for a name with nothing usable")
	}
}

func TestAutoMigrateSQLiteSeedsEveryGroupOnce(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx := context.Background()
	if err := migrate.AutoMigrateSQLite(ctx, conn, 7); err != nil {
		t.Fatalf("AutoMigrateSQLite: %v", err)
	}
	if err := conn.Model(&models.BloodStock{}).
		Where("blood_group = ?", enums.BloodGroupONeg).
		Update("units_available", 4).Error; err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := migrate.SeedBloodStock(ctx, conn, 10); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var rows []models.BloodStock
	if err := conn.Order("blood_group").Find(&rows).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.LowStockThreshold != 7 {
			t.Fatalf("%s threshold overwritten: %d", row.BloodGroup, row.LowStockThreshold)
		}
		if row.BloodGroup == enums.BloodGroupONeg && row.UnitsAvailable != 4 {
			t.Fatalf("reseed must not reset balances, got %d", row.UnitsAvailable)
		}
	}
}
