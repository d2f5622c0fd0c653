package errors

import (
	stdErrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Dump flattens an error chain into loggable fields, surfacing Postgres
// driver details when a pgconn error is buried in the chain.
type DumpResult struct {
	TopMessage   string
	Code         Code
	Chain        []string
	PGCode       string
	PGDetail     string
	PGMessage    string
	PGTable      string
	PGColumn     string
	PGConstraint string
}

func Dump(err error) DumpResult {
	result := DumpResult{Code: CodeInternal}
	if err == nil {
		return result
	}
	result.TopMessage = err.Error()

	if typed := As(err); typed != nil {
		result.Code = typed.Code()
	}

	for cursor := err; cursor != nil; cursor = stdErrors.Unwrap(cursor) {
		result.Chain = append(result.Chain, cursor.Error())
	}

	var pgErr *pgconn.PgError
	if stdErrors.As(err, &pgErr) {
		result.PGCode = pgErr.Code
		result.PGDetail = pgErr.Detail
		result.PGMessage = pgErr.Message
		result.PGTable = pgErr.TableName
		result.PGColumn = pgErr.ColumnName
		result.PGConstraint = pgErr.ConstraintName
	}

	return result
}
