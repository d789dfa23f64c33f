package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the claims in a minted backend credential
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

const mintedTokenTTL = 1 * time.Hour

// TokenSource supplies the bearer credential attached to every backend call
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource returns a fixed, externally supplied credential
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token() (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("no bearer token configured")
	}
	return s.token, nil
}

// JWTTokenSource mints short-lived HS256 credentials from a shared secret,
// re-minting shortly before expiry
type JWTTokenSource struct {
	secret   []byte
	clientID string

	mu      sync.Mutex
	current string
	expires time.Time
}

func NewJWTTokenSource(secret []byte, clientID string) *JWTTokenSource {
	return &JWTTokenSource{secret: secret, clientID: clientID}
}

func (s *JWTTokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" && time.Until(s.expires) > time.Minute {
		return s.current, nil
	}

	expires := time.Now().Add(mintedTokenTTL)
	token, err := MintToken(s.secret, s.clientID, mintedTokenTTL)
	if err != nil {
		return "", err
	}
	s.current = token
	s.expires = expires
	return token, nil
}

// MintToken generates an HS256 credential for the given client
func MintToken(secret []byte, clientID string, ttl time.Duration) (string, error) {
	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a minted credential and returns its claims
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
