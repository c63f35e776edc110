package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/pressly/goose/v3"
)

var (
	nameSanitizeRe  = regexp.MustCompile(`[^a-z0-9_]+`)
	underscoreRunRe = regexp.MustCompile(`_+`)
)

// sqlTemplate is the starting point for new schema changes. Anything touching
// blood_stock must keep the non-negative CHECK and the eight seeded rows.
var sqlTemplate = template.Must(template.New("bloodbank.sql-migration").Parse(`-- +goose Up
-- +goose StatementBegin
-- {{.CamelName}}: write the change here
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- {{.CamelName}}: undo the change here
-- +goose StatementEnd
`))

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql through goose and
// returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	before, err := matching(dir, safe)
	if err != nil {
		return "", err
	}

	goose.SetSequential(false)
	goose.SetLogger(goose.NopLogger())
	if err := goose.CreateWithTemplate(nil, dir, sqlTemplate, safe, "sql"); err != nil {
		return "", fmt.Errorf("create migration %q: %w", safe, err)
	}

	after, err := matching(dir, safe)
	if err != nil {
		return "", err
	}
	for path := range after {
		if _, existed := before[path]; !existed {
			return path, nil
		}
	}
	return "", fmt.Errorf("migration %q was not written to %s", safe, dir)
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	safe = underscoreRunRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

// matching lists the migration files already written for name.
func matching(dir, name string) (map[string]struct{}, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*_"+name+".sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	out := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		out[p] = struct{}{}
	}
	return out, nil
}
