package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yumetria/tsudoi/internal/domain"
)

// wireClaims is the JWT payload. The subject rides in the registered
// claims so the signature covers it together with expiry.
type wireClaims struct {
	jwt.RegisteredClaims
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	GroupID      *string `json:"group_id,omitempty"`
	InvitedEmail *string `json:"invited_email,omitempty"`
}

// Codec signs and verifies compact tokens with a server-held symmetric
// secret. It never touches storage; consumption state lives elsewhere.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// New builds a codec for the given secret and algorithm identifier
// (e.g. "HS256"). Unknown algorithms are rejected at construction so a
// misconfigured server cannot mint unverifiable tokens.
func New(secret string, algorithm string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("algorithm %q is not MAC-based", algorithm)
	}
	return &Codec{secret: []byte(secret), method: method, now: time.Now}, nil
}

// Issue signs claims + subject with an absolute expiry baked into the
// payload. Returns the compact token and its issue/expiry instants.
func (c *Codec) Issue(claims domain.Claims, subject domain.TokenSubject, ttl time.Duration) (string, time.Time, time.Time, error) {
	if err := claims.ValidateFor(subject); err != nil {
		return "", time.Time{}, time.Time{}, err
	}

	issuedAt := c.now()
	expiresAt := issuedAt.Add(ttl)

	wire := wireClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(subject),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:        claims.Email,
		Username:     claims.Username,
		GroupID:      claims.GroupID,
		InvitedEmail: claims.InvitedEmail,
	}

	signed, err := jwt.NewWithClaims(c.method, wire).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return signed, issuedAt, expiresAt, nil
}

// Verify checks signature and embedded expiry, then returns the decoded
// claim set and subject. Purely computational. Signature and malformed
// payload failures collapse into ErrInvalidCredential so the response
// never tells a forger which check tripped.
func (c *Codec) Verify(tokenString string) (domain.Claims, domain.TokenSubject, error) {
	var wire wireClaims
	_, err := jwt.ParseWithClaims(tokenString, &wire, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, "", domain.ErrExpired
		}
		return domain.Claims{}, "", domain.ErrInvalidCredential
	}

	subject := domain.TokenSubject(wire.Subject)
	claims := domain.Claims{
		Email:        wire.Email,
		Username:     wire.Username,
		GroupID:      wire.GroupID,
		InvitedEmail: wire.InvitedEmail,
	}
	if err := claims.ValidateFor(subject); err != nil {
		return domain.Claims{}, "", domain.ErrInvalidCredential
	}
	return claims, subject, nil
}
