package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Key ids carried in the token header. They name the secret, they are not
// secret themselves.
const (
	KeyIDUser  = "user"
	KeyIDAdmin = "admin"

	adminRole = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs admin tokens and all other tokens with separate secrets.
// The header kid selects the verification secret directly.
type JWTManager struct {
	keys     map[string][]byte
	Duration time.Duration
}

// NewJWTManager builds a manager. An empty adminSecret makes admin tokens
// share the regular secret.
func NewJWTManager(secretKey, adminSecretKey string, duration time.Duration) *JWTManager {
	if adminSecretKey == "" {
		adminSecretKey = secretKey
	}
	return &JWTManager{
		keys: map[string][]byte{
			KeyIDUser:  []byte(secretKey),
			KeyIDAdmin: []byte(adminSecretKey),
		},
		Duration: duration,
	}
}

func keyIDForRole(role string) string {
	if role == adminRole {
		return KeyIDAdmin
	}
	return KeyIDUser
}

func (j *JWTManager) GenerateToken(userID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.Duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	kid := keyIDForRole(role)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(j.keys[kid])
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		key, ok := j.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// An admin role claim must have been signed with the admin secret.
	if kid, _ := token.Header["kid"].(string); kid != keyIDForRole(claims.Role) {
		return nil, fmt.Errorf("%w: key id does not match role", ErrInvalidToken)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims, nil
}
