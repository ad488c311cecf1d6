package store

import (
	"errors"
	"strings"

	"github.com/dancarlton/rinsed/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE postgres reports for a unique index conflict
const pgUniqueViolation = "23505"

var columnFields = map[string]string{
	"email":     "email",
	"username":  "username",
	"google_id": "googleId",
}

// translateError turns a unique index violation reported by the database into
// a *model.DuplicateKeyError. This only happens when two writers race past
// checkUnique, everything else is returned as is.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &model.DuplicateKeyError{Field: fieldFromConstraint(pgErr.ConstraintName)}
	}

	// sqlite: "UNIQUE constraint failed: users.email"
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		return &model.DuplicateKeyError{Field: fieldFromSQLiteMessage(msg)}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &model.DuplicateKeyError{Field: "unknown"}
	}

	return err
}

// fieldFromConstraint maps gorm's index names (idx_users_google_id) back to
// the record field.
func fieldFromConstraint(name string) string {
	for column, field := range columnFields {
		if strings.HasSuffix(name, "_"+column) {
			return field
		}
	}

	return name
}

func fieldFromSQLiteMessage(msg string) string {
	_, after, ok := strings.Cut(msg, "users.")
	if !ok {
		return "unknown"
	}

	column := strings.FieldsFunc(after, func(r rune) bool { return r == ',' || r == ' ' })
	if len(column) == 0 {
		return "unknown"
	}

	if field, ok := columnFields[column[0]]; ok {
		return field
	}

	return column[0]
}
