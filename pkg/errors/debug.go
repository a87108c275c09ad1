package errors

import (
	stdErrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the structured form of an error chain, logged alongside 5xx
// responses so operators can see the full cause without leaking it to clients.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// pgDiagnostics carries the driver-level fields postgres attaches to a failed
// statement, normalized across the pgx and lib/pq error types.
type pgDiagnostics struct {
	code       string
	constraint string
	table      string
	column     string
	detail     string
	message    string
}

// Dump walks the unwrap chain and collects everything worth logging: the
// domain code if one is present, each message in the chain, and postgres
// diagnostics from whichever driver produced the failure.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	dump := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		dump.Code = typed.Code()
	}

	for cur := err; cur != nil; cur = stdErrors.Unwrap(cur) {
		dump.Chain = append(dump.Chain, cur.Error())
	}

	if diag, ok := extractPGDiagnostics(err); ok {
		dump.PGCode = diag.code
		dump.PGConstraint = diag.constraint
		dump.PGTable = diag.table
		dump.PGColumn = diag.column
		dump.PGDetail = diag.detail
		dump.PGMessage = diag.message
	}
	return dump
}

func extractPGDiagnostics(err error) (pgDiagnostics, bool) {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return pgDiagnostics{
			code:       pgxErr.Code,
			constraint: pgxErr.ConstraintName,
			table:      pgxErr.TableName,
			column:     pgxErr.ColumnName,
			detail:     pgxErr.Detail,
			message:    pgxErr.Message,
		}, true
	}

	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return pgDiagnostics{
			code:       string(pqErr.Code),
			constraint: pqErr.Constraint,
			table:      pqErr.Table,
			column:     pqErr.Column,
			detail:     pqErr.Detail,
			message:    pqErr.Message,
		}, true
	}

	return pgDiagnostics{}, false
}
