package checkout

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	msgRequired = "Por favor, completa todos los campos requeridos."
	msgEmail    = "Por favor, ingresa un email válido."
	msgPhone    = "Por favor, ingresa un teléfono válido (mínimo 8 dígitos)."

	minPhoneDigits = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// normalizeDraft trims every field and applies the default country.
func normalizeDraft(d domain.ShippingDraft) domain.ShippingDraft {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	d.Country = strings.TrimSpace(d.Country)
	if d.Country == "" {
		d.Country = domain.DefaultCountry
	}
	return d
}

func validateDraft(v *validator.Validate, d domain.ShippingDraft) error {
	if err := v.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Field(), Message: msgRequired}
		}
		return &ValidationError{Message: msgRequired}
	}
	if !emailPattern.MatchString(d.Email) {
		return &ValidationError{Field: "Email", Message: msgEmail}
	}
	if countDigits(d.Phone) < minPhoneDigits {
		return &ValidationError{Field: "Phone", Message: msgPhone}
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
