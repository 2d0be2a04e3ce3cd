package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/epicevents/crm/internal/common"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

const minPasswordLength = 8

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return common.NewError(common.ErrValidation, "invalid email address %q", email)
	}
	return nil
}

// validatePassword requires at least eight characters including a digit.
func validatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return common.NewError(common.ErrValidation, "password must be at least %d characters long", minPasswordLength)
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return common.NewError(common.ErrValidation, "password must contain at least one digit")
	}
	return nil
}

func validateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return common.NewError(common.ErrValidation, "%s is required", field)
	}
	return nil
}

// normalizeStatus accepts contract statuses in any case.
func normalizeStatus(status string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case common.ContractSigned, common.ContractUnsigned:
		return s, nil
	case "":
		return common.ContractUnsigned, nil
	}
	return "", common.NewError(common.ErrValidation, "invalid contract status %q (want %s or %s)",
		status, common.ContractSigned, common.ContractUnsigned)
}
