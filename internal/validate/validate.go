package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reRef      = regexp.MustCompile(`^[A-Za-z0-9_|.:-]{1,128}$`)
	reProvider = regexp.MustCompile(`^(paypal|stripe|nets)$`)
)

var structs = validator.New(validator.WithRequiredStructEnabled())

func init() {
	structs.RegisterValidation("ref", func(fl validator.FieldLevel) bool {
		return reRef.MatchString(fl.Field().String())
	})
	structs.RegisterValidation("id", func(fl validator.FieldLevel) bool {
		return reID.MatchString(fl.Field().String())
	})
}

// Struct checks the `validate` tags of a decoded request body. Besides the
// stock rules it knows "ref" (provider token) and "id" (resource id).
func Struct(v any) error {
	return structs.Struct(v)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Qty parses a cart quantity, clamped to [1, 50].
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// Stock parses an admin stock level: a non-negative integer.
func Stock(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 100000 {
		return 0, false
	}
	return n, true
}

// ID validates a simple resource identifier (product and order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// ProviderRef validates an opaque token handed back by a payment provider.
func ProviderRef(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reRef.MatchString(s)
}

func Provider(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, reProvider.MatchString(s)
}

// Reason validates free text for refund reasons and admin notes.
func Reason(s string, required bool) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", !required
	}
	if utf8.RuneCountInString(s) > 500 {
		return "", false
	}
	return s, true
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
