package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is assumed for contact numbers given without a
// country prefix
var DefaultPhoneRegion = "LK"

// NormalizeContactNumber canonicalizes a contact number before we store
// or compare it. Numbers the library recognizes come back in E.164,
// anything else keeps its digits as given so legacy records still match.
func NormalizeContactNumber(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '+':
			return r
		default:
			return -1
		}
	}, raw)

	if len(strings.TrimPrefix(cleaned, "+")) < 7 {
		return "", goerrors.New("contact number is too short", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"contact_no": raw})
	}

	num, err := phonenumbers.Parse(cleaned, DefaultPhoneRegion)
	if err != nil {
		return cleaned, nil
	}

	if !phonenumbers.IsValidNumber(num) {
		return cleaned, nil
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
