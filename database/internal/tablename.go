// Package internal holds helpers shared by the SQL session backends.
package internal

import (
	"errors"
	"fmt"
	"regexp"
)

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// ValidateTableName returns an error describing why name is not a usable table name.
func ValidateTableName(name string) error {
	if name == "" {
		return errors.New("validate table: session table name cannot be empty")
	}
	if !IsValidTableName(name) {
		return fmt.Errorf("validate table: invalid session table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
	}
	return nil
}

// ColumnInfo describes an expected column of the sessions table.
type ColumnInfo struct {
	Name       string
	DataType   string
	IsNullable bool
}

// CompareSchema reports missing and mismatched columns of actual against expected.
func CompareSchema(tableName string, expected, actual map[string]ColumnInfo) error {
	var missing, mismatched []string

	for colName, want := range expected {
		got, ok := actual[colName]
		if !ok {
			missing = append(missing, colName)
			continue
		}
		if got.DataType != want.DataType {
			mismatched = append(mismatched,
				fmt.Sprintf("%s: expected %s, got %s", colName, want.DataType, got.DataType))
		}
		if got.IsNullable != want.IsNullable {
			mismatched = append(mismatched,
				fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", colName, want.IsNullable, got.IsNullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	msg := fmt.Sprintf("table %s schema validation failed", tableName)
	if len(missing) > 0 {
		msg += fmt.Sprintf("; missing columns: %v", missing)
	}
	if len(mismatched) > 0 {
		msg += fmt.Sprintf("; mismatched columns: %v", mismatched)
	}
	return errors.New(msg)
}
