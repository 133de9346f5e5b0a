package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const pgErrCodeUniqueViolation = "23505"

// dialect holds what differs between the SQL backends
type dialect struct {
	name              string
	createTable       string
	placeholder       func(n int) string
	isUniqueViolation func(err error) bool
}

var sqliteDialect = dialect{
	name: "sqlite3",
	createTable: `
        CREATE TABLE IF NOT EXISTS url_mappings (
            alias TEXT PRIMARY KEY NOT NULL,
            full_url TEXT NOT NULL,
            short_url TEXT NOT NULL,
            is_customised BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL
        )`,
	placeholder: func(int) string { return "?" },
	isUniqueViolation: func(err error) bool {
		var sqliteErr sqlite3.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	},
}

var postgresCreateTable = `
        CREATE TABLE IF NOT EXISTS url_mappings (
            alias TEXT PRIMARY KEY,
            full_url TEXT NOT NULL,
            short_url TEXT NOT NULL,
            is_customised BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL
        )`

func dollarPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// lib/pq, registered as "postgres"
var pqDialect = dialect{
	name:        "postgres",
	createTable: postgresCreateTable,
	placeholder: dollarPlaceholder,
	isUniqueViolation: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && string(pqErr.Code) == pgErrCodeUniqueViolation
	},
}

// pgx through database/sql, registered as "pgx"
var pgxDialect = dialect{
	name:        "pgx",
	createTable: postgresCreateTable,
	placeholder: dollarPlaceholder,
	isUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation
	},
}

// bind rewrites "?" markers into the dialect's placeholders
func (d dialect) bind(query string) string {
	var sb strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteString(d.placeholder(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}
