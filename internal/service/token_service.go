package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	operatorTokenType = "operator"
	tokenIssuer       = "emotion-diary"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenService emite y valida tokens de operador para las rutas de administración.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type OperatorClaims struct {
	Operator  string `json:"operator"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: tokenIssuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Enabled indica si hay secreto configurado; sin el, las rutas protegidas quedan cerradas.
func (s *TokenService) Enabled() bool {
	return len(s.secret) > 0
}

func (s *TokenService) Issue(operator string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrTokenInvalid
	}
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return "", time.Time{}, ErrTokenInvalid
	}
	now := s.now()
	expires := now.Add(s.ttl)
	claims := OperatorClaims{
		Operator:  operator,
		TokenType: operatorTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (s *TokenService) Parse(tokenString string) (OperatorClaims, error) {
	if !s.Enabled() || strings.TrimSpace(tokenString) == "" {
		return OperatorClaims{}, ErrTokenInvalid
	}
	var claims OperatorClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return OperatorClaims{}, ErrTokenExpired
		}
		return OperatorClaims{}, ErrTokenInvalid
	}
	if claims.TokenType != operatorTokenType {
		return OperatorClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Operator) == "" || claims.Subject != claims.Operator {
		return OperatorClaims{}, ErrTokenInvalid
	}
	return claims, nil
}
