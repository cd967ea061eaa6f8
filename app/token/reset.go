package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrResetTokenExpired = errors.New("reset token has expired")
	ErrResetTokenInvalid = errors.New("invalid reset token")
)

// DeriveSecret combines the process-wide base secret with an account's
// current password hash into a per-account, per-password signing secret.
// Equal inputs always yield the same secret; any change to the password
// hash yields a different one. The derivation is independent of the signing
// scheme, so the HMAC primitive can be swapped without touching it.
func DeriveSecret(base []byte, passwordHash string) []byte {
	secret := make([]byte, 0, len(base)+len(passwordHash))
	secret = append(secret, base...)
	secret = append(secret, passwordHash...)
	return secret
}

// ResetIssuer mints and verifies password-reset tokens. The signing secret
// embeds the password hash current at issuance, so every outstanding reset
// token for an account stops verifying the moment its password changes.
// No reset state is persisted anywhere.
type ResetIssuer struct {
	base []byte
	ttl  time.Duration
}

func NewResetIssuer(baseSecret string, ttl time.Duration) *ResetIssuer {
	return &ResetIssuer{base: []byte(baseSecret), ttl: ttl}
}

// Issue signs {userID, email} with the secret derived from passwordHash.
// Pure function of its inputs and the clock.
func (i *ResetIssuer) Issue(userID, email, passwordHash string) (string, error) {
	return sign(DeriveSecret(i.base, passwordHash), userID, email, i.ttl)
}

// Verify checks tokenString against the secret derived from the account's
// current stored hash. Callers must fetch currentPasswordHash fresh, never
// reuse the value from issuance time. ErrResetTokenInvalid covers both
// tampering and a password changed since issuance; the two are deliberately
// indistinguishable.
func (i *ResetIssuer) Verify(tokenString, currentPasswordHash string) (*Claims, error) {
	claims, err := parse(DeriveSecret(i.base, currentPasswordHash), tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrResetTokenExpired
		}
		return nil, ErrResetTokenInvalid
	}
	return claims, nil
}
