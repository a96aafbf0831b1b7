package withdrawal

import (
	"regexp"
	"strings"

	"github.com/chrono60/backend/internal/domain/shared"
)

// PixKeyType names the kind of PIX key a withdrawal pays to
type PixKeyType string

const (
	PixKeyCPF    PixKeyType = "cpf"
	PixKeyEmail  PixKeyType = "email"
	PixKeyPhone  PixKeyType = "phone"
	PixKeyRandom PixKeyType = "random"
)

// IsValid returns true if the pix key type is valid
func (t PixKeyType) IsValid() bool {
	switch t {
	case PixKeyCPF, PixKeyEmail, PixKeyPhone, PixKeyRandom:
		return true
	}
	return false
}

var (
	cpfPattern   = regexp.MustCompile(`^\d{11}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d{10,14}$`)
)

// ValidatePixKey checks a key against the rules of its type
func ValidatePixKey(key string, keyType PixKeyType) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return shared.NewDomainError("INVALID_PIX_KEY", "Pix key cannot be empty")
	}
	switch keyType {
	case PixKeyCPF:
		if !cpfPattern.MatchString(key) {
			return shared.NewDomainError("INVALID_PIX_KEY", "CPF key must have exactly 11 digits")
		}
	case PixKeyEmail:
		if !emailPattern.MatchString(key) {
			return shared.NewDomainError("INVALID_PIX_KEY", "Email key is not a valid address")
		}
	case PixKeyPhone:
		if !phonePattern.MatchString(key) {
			return shared.NewDomainError("INVALID_PIX_KEY", "Phone key is not a valid number")
		}
	case PixKeyRandom:
		if len(key) < 32 {
			return shared.NewDomainError("INVALID_PIX_KEY", "Random key must have at least 32 characters")
		}
	default:
		return shared.NewDomainError("INVALID_PIX_KEY", "Unknown pix key type")
	}
	return nil
}
