package approval

import (
	"github.com/golang-jwt/jwt/v5"
)

// SignedAuditTrail wraps a Manager's audit log with an HS256 signature so
// the log can be exported and later checked for tampering. Signing is
// optional: a Manager works fully without one, and a signing failure here
// never blocks an approval decision from being recorded.
type SignedAuditTrail struct {
	manager *Manager
	key     []byte
}

// NewSignedAuditTrail wraps manager with an HMAC signing key.
func NewSignedAuditTrail(manager *Manager, key []byte) *SignedAuditTrail {
	return &SignedAuditTrail{manager: manager, key: key}
}

type auditClaims struct {
	jwt.RegisteredClaims
	EntryCount int `json:"entry_count"`
}

// Sign produces a compact HS256 JWT whose claim set commits to the current
// number of audit entries. Verifiers can compare EntryCount against a
// freshly exported log to detect truncation.
func (s *SignedAuditTrail) Sign() (string, error) {
	entries := s.manager.AuditLog()
	claims := auditClaims{EntryCount: len(entries)}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Verify parses a token produced by Sign and reports the entry count it
// committed to.
func (s *SignedAuditTrail) Verify(token string) (int, error) {
	claims := &auditClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil || !parsed.Valid {
		return 0, err
	}
	return claims.EntryCount, nil
}
