package webhook

import (
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
)

// SecretHeader carries the secret token Telegram was given in setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// MaxSecretLength is the longest secret token Telegram accepts.
const MaxSecretLength = 256

// ErrMalformedSecret is returned for secret tokens Telegram would not accept.
var ErrMalformedSecret = errors.New("malformed secret token")

// Verdict is the outcome of secret verification.
type Verdict int

const (
	Accepted Verdict = iota
	Mismatch
	Malformed
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Mismatch:
		return "mismatch"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// CheckSecret validates a secret token: 1-256 characters from A-Z, a-z,
// 0-9, _ and -.
func CheckSecret(secret []byte) error {
	if len(secret) == 0 || len(secret) > MaxSecretLength {
		return ErrMalformedSecret
	}
	for _, c := range secret {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return ErrMalformedSecret
		}
	}
	return nil
}

// VerifySecret compares the secret header of a request with the configured
// secret. A malformed header is rejected before any comparison. The
// comparison itself runs in constant time for equal-length inputs.
func VerifySecret(header []byte, headerPresent bool, secret []byte, secretConfigured bool) Verdict {
	if headerPresent && CheckSecret(header) != nil {
		return Malformed
	}

	switch {
	case !headerPresent && !secretConfigured:
		return Accepted
	case headerPresent != secretConfigured:
		return Mismatch
	}

	if subtle.ConstantTimeCompare(header, secret) != 1 {
		return Mismatch
	}
	return Accepted
}

// GenerateSecret returns a random secret token that passes CheckSecret.
func GenerateSecret() string {
	return uuid.NewString()
}
