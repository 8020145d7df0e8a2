package database

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/koustreak/dbdesk/internal/errs"
)

// MaxIdentifierLength is MySQL's limit for schema and table names.
const MaxIdentifierLength = 64

// ValidateIdentifier accepts plain identifiers only: letters, digits,
// '_', '$' and '-', at most 64 characters. Identifiers that pass can be
// wrapped in backticks without escaping.
func ValidateIdentifier(name string) error {
	if name == "" {
		return errs.New(errs.ErrKindInvalidInput, "identifier must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxIdentifierLength {
		return errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("identifier %q exceeds %d characters", name, MaxIdentifierLength))
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '$' || r == '-':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		default:
			return errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("identifier %q contains invalid character %q", name, r))
		}
	}
	return nil
}

// QuoteIdent wraps a validated identifier in backticks.
func QuoteIdent(name string) string {
	return "`" + name + "`"
}

// QualifiedTable validates both names and returns `database`.`table`.
func QualifiedTable(database, table string) (string, error) {
	if err := ValidateIdentifier(database); err != nil {
		return "", err
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", err
	}
	return QuoteIdent(database) + "." + QuoteIdent(table), nil
}
