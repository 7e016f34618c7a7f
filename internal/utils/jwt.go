package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken – токен не прошёл проверку
var ErrInvalidToken = errors.New("invalid token")

// DefaultTokenTTL – срок жизни токена по умолчанию
const DefaultTokenTTL = 24 * time.Hour

// JWTService отвечает за создание и валидацию JWT токенов
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTService создаёт новый экземпляр JWTService
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       DefaultTokenTTL,
		now:       time.Now,
	}
}

// WithTTL возвращает копию сервиса с другим сроком жизни токенов
func (s *JWTService) WithTTL(ttl time.Duration) *JWTService {
	cp := *s
	cp.ttl = ttl
	return &cp
}

// GenerateToken создаёт JWT токен для пользователя
func (s *JWTService) GenerateToken(userID string) (string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", fmt.Errorf("user id %q: %w", userID, err)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken проверяет подпись и срок действия токена
func (s *JWTService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return token, nil
}

// ExtractUserID возвращает UUID пользователя из токена
func (s *JWTService) ExtractUserID(tokenString string) (string, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: subject is not a uuid", ErrInvalidToken)
	}
	return claims.Subject, nil
}
