package payments

import (
	"regexp"
	"strings"

	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail applies the basic payer-email shape check used before any
// network call is made.
func ValidateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payer email is required")
	}
	if !emailPattern.MatchString(trimmed) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payer email is malformed")
	}
	return nil
}
