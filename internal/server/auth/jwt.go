// Package auth issues and validates the HS256 bearer tokens handed out after
// registration and login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenValidity is the fixed lifetime of every issued token.
const TokenValidity = 3 * time.Hour

// MinKeyLength is the shortest signing key accepted for HS256 (256 bits).
const MinKeyLength = 32

// Claims is the token payload: registered claims plus identity and
// authorization attributes of the account.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	LastLogin string `json:"lastLogin,omitempty"`
}

// UserID is the account id carried in the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// LastLoginTime parses the lastLogin claim. ok is false when it is absent.
func (c *Claims) LastLoginTime() (t time.Time, ok bool) {
	if c.LastLogin == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, c.LastLogin)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Settings configures a TokenIssuer.
type Settings struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// TokenIssuer signs and validates tokens. It holds no mutable state and is
// safe for concurrent use.
type TokenIssuer struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
	newID    func() string
}

type Option func(*TokenIssuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *TokenIssuer) { i.now = now }
}

// WithIDFunc overrides the jti generator.
func WithIDFunc(f func() string) Option {
	return func(i *TokenIssuer) { i.newID = f }
}

func NewTokenIssuer(s Settings, opts ...Option) *TokenIssuer {
	i := &TokenIssuer{
		key:      []byte(s.SigningKey),
		issuer:   s.Issuer,
		audience: s.Audience,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// ValidateKey reports ErrConfiguration for a missing or too short key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: signing key is not set", common.ErrConfiguration)
	}
	if len(key) < MinKeyLength {
		return fmt.Errorf("%w: signing key must be at least %d bytes", common.ErrConfiguration, MinKeyLength)
	}
	return nil
}

// Issue builds the claim set for account and signs it.
func (i *TokenIssuer) Issue(account *models.Account) (string, error) {
	if err := ValidateKey(string(i.key)); err != nil {
		return "", err
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenValidity)),
			ID:        i.newID(),
		},
		Email:    account.Email,
		Name:     account.FullName,
		Role:     account.Role,
		IsActive: account.IsActive,
	}
	if i.audience != "" {
		claims.Audience = jwt.ClaimStrings{i.audience}
	}
	if account.LastLoginAt != nil {
		claims.LastLogin = account.LastLoginAt.Format(time.RFC3339Nano)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Parse validates signature, algorithm, issuer, audience and expiry and
// returns the claims. Every failure is reported as ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if i.audience != "" {
		opts = append(opts, jwt.WithAudience(i.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if len(i.key) == 0 {
			return nil, errors.New("signing key is not set")
		}
		return i.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
