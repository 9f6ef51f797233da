package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/models"
)

const tokenIssuer = "team-diagnostic"

// Claims is the admin session token body.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type AuthService interface {
	Login(email, password string) (*models.LoginResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	adminEmail   string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewAuthService(cfg config.AuthConfig) AuthService {
	return &authService{
		adminEmail:   strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		passwordHash: []byte(cfg.AdminPasswordHash),
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.TokenTTL,
		now:          time.Now,
	}
}

var errInvalidCredentials = apperrors.New(apperrors.KindUnauthorized, "invalid email or password")

func (a *authService) Login(email, password string) (*models.LoginResponse, error) {
	if a.adminEmail == "" || len(a.passwordHash) == 0 || len(a.secret) == 0 {
		return nil, apperrors.New(apperrors.KindUnauthorized, "admin login is not configured")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.adminEmail)) == 1
	// compare the password even for a wrong email so both paths take the same time
	passwordErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !emailOK || passwordErr != nil {
		return nil, errInvalidCredentials
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.LoginResponse{Token: signed, ExpiresAt: expiresAt}, nil
}

func (a *authService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "authorization token required")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.KindUnauthorized, "session expired; log in again")
		}
		return nil, apperrors.New(apperrors.KindUnauthorized, "invalid token")
	}

	return claims, nil
}
