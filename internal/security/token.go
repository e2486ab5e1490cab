package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"

	issuer         = "rental-backend"
	accessAudience = "api-access"
)

// UserClaims defines the standard claims for our application
type UserClaims struct {
	UserID int64     `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Type   TokenType `json:"type"`
	Roles  []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateAccessToken(userID int64, email string, roles []string) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
	// ValidateAccessToken is ValidateToken plus a check that the token is an access token.
	ValidateAccessToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret      []byte
	accessTTL   time.Duration
	currentTime func() time.Time
}

func NewTokenManager(secret string, accessTTL time.Duration) TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &tokenManager{
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		currentTime: time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(userID int64, email string, roles []string) (string, error) {
	now := m.currentTime()
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		Type:   TokenTypeAccess,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.currentTime))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		// Populate UserID from Subject if it was lost (though we set both)
		if claims.UserID == 0 && claims.Subject != "" {
			uid, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil {
				return nil, ErrInvalidToken
			}
			claims.UserID = uid
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func (m *tokenManager) ValidateAccessToken(tokenString string) (*UserClaims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
