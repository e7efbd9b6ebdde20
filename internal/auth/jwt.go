package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by both the inbound access token and the minted internal token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Exchanger verifies inbound access tokens and mints short-lived internal
// tokens for calls to backend services.
type Exchanger struct {
	accessSecret   []byte
	internalSecret []byte
	internalTTL    time.Duration
	now            func() time.Time
}

func NewExchanger(accessSecret, internalSecret string, internalTTL time.Duration) *Exchanger {
	return &Exchanger{
		accessSecret:   []byte(accessSecret),
		internalSecret: []byte(internalSecret),
		internalTTL:    internalTTL,
		now:            time.Now,
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[7:])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Verify checks an access token's signature and expiry.
func (e *Exchanger) Verify(tokenStr string) (*Claims, error) {
	return parse(tokenStr, e.accessSecret, e.now)
}

// Mint issues an internal token for userID that expires after the configured TTL.
func (e *Exchanger) Mint(userID string) (string, error) {
	now := e.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(e.internalTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(e.internalSecret)
}

// Exchange verifies an access token and mints the matching internal token.
func (e *Exchanger) Exchange(accessToken string) (*Claims, string, error) {
	claims, err := e.Verify(accessToken)
	if err != nil {
		return nil, "", err
	}
	internal, err := e.Mint(claims.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("mint internal token: %w", err)
	}
	return claims, internal, nil
}

// VerifyInternal parses a token minted by Mint.
func (e *Exchanger) VerifyInternal(tokenStr string) (*Claims, error) {
	return parse(tokenStr, e.internalSecret, e.now)
}

func parse(tokenStr string, secret []byte, now func() time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
