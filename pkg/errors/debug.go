package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// maxChainDepth caps how many wrapped errors a dump records.
const maxChainDepth = 16

// stockGuardConstraints are the CHECKs backing the non-negative ledger. Hitting
// one means a write reached the table without going through the guarded update.
var stockGuardConstraints = []string{
	"chk_blood_stock_units_non_negative",
	"chk_stock_events_balance_non_negative",
}

// PGDiagnostics is what Postgres reported for a failed statement.
type PGDiagnostics struct {
	Code       string `json:"pg_code,omitempty"`
	Constraint string `json:"pg_constraint,omitempty"`
	Table      string `json:"pg_table,omitempty"`
	Column     string `json:"pg_column,omitempty"`
	Detail     string `json:"pg_detail,omitempty"`
	Message    string `json:"pg_message,omitempty"`
}

// ErrorDump is the log-only view of an error. It never reaches a response body.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable"`
	Chain      []string `json:"chain,omitempty"`

	PG PGDiagnostics `json:"pg,omitempty"`
	// StockGuard is set when a ledger CHECK constraint rejected the write.
	StockGuard bool `json:"stock_guard,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	code := CodeInternal
	if te := As(err); te != nil {
		code = te.Code()
		d.Code = code
	}
	d.Retryable = MetadataFor(code).Retryable

	for e := err; e != nil && len(d.Chain) < maxChainDepth; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	if pg, ok := pgDiagnostics(err); ok {
		d.PG = pg
		d.StockGuard = isStockGuard(pg.Constraint)
	}
	return d
}

func pgDiagnostics(err error) (PGDiagnostics, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return PGDiagnostics{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return PGDiagnostics{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}, true
	}
	return PGDiagnostics{}, false
}

func isStockGuard(constraint string) bool {
	for _, name := range stockGuardConstraints {
		if strings.EqualFold(constraint, name) {
			return true
		}
	}
	return false
}
