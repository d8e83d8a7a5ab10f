// Package dberr classifies driver errors shared by the gorm-backed services.
package dberr

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKey reports whether err stems from a primary key or unique index violation.
// Dialectors opened with TranslateError return gorm.ErrDuplicatedKey; the message checks
// cover connections opened without translation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value")
}
