package httpserver

import (
	"crypto/rsa"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Identity is the caller as asserted by the identity provider's session token.
type Identity struct {
	ClerkID string
	Email   string
	Name    string
}

type identityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// IdentityVerifier checks RS256 session tokens issued by the identity provider.
type IdentityVerifier struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

// NewIdentityVerifier parses a PEM encoded RSA public key. When issuer is
// set the iss claim must match it.
func NewIdentityVerifier(publicKeyPEM, issuer string) (*IdentityVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, errors.Wrap(err, "parse identity public key")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &IdentityVerifier{key: key, parser: jwt.NewParser(opts...)}, nil
}

func (v *IdentityVerifier) Verify(raw string) (*Identity, error) {
	var claims identityClaims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	return &Identity{ClerkID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}
