package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// IsUniqueViolation reports whether the provided error is a MySQL duplicate
// key violation. When keyName is provided, the helper also looks for the key
// name in the error message, so callers can distinguish which unique index
// was hit.
func IsUniqueViolation(err error, keyName string) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number != mysqlDuplicateEntry {
			return false
		}
		if keyName == "" {
			return true
		}
		return strings.Contains(myErr.Message, keyName)
	}

	// SQLite (tests) reports constraint failures as plain strings.
	msg := err.Error()
	if keyName != "" && strings.Contains(msg, keyName) {
		return true
	}
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
