package service

import (
	"context"
	"damoyeo/internal/cache"
	"damoyeo/internal/config"
	"damoyeo/internal/models"
	"damoyeo/internal/repository"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AuthService interface {
	Register(ctx context.Context, req repository.CreateUserRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, string, error)
	Logout(ctx context.Context, claims *Claims) error
	RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	ParseToken(ctx context.Context, tokenString string) (*Claims, error)
	GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error)
}

// Claims of an access token. ID (jti) identifies the token for revocation.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo  repository.UserRepository
	blacklist *cache.TokenBlacklist
	cfg       *config.Config
}

func NewAuthService(userRepo repository.UserRepository, blacklist *cache.TokenBlacklist, cfg *config.Config) AuthService {
	return &authService{
		userRepo:  userRepo,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

func (s *authService) Register(ctx context.Context, req repository.CreateUserRequest) (*models.User, error) {
	refreshToken, refreshTokenExpiry, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации refresh token: %w", err)
	}

	user := &models.User{
		Email:                  strings.ToLower(strings.TrimSpace(req.Email)),
		Name:                   strings.TrimSpace(req.Name),
		Nickname:               strings.TrimSpace(req.Nickname),
		PhoneNum:               strings.TrimSpace(req.PhoneNum),
		RefreshToken:           refreshToken,
		RefreshTokenExpiryTime: refreshTokenExpiry,
	}

	err = boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		return s.userRepo.CreateUser(ctx, user, req.Password)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	user, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.User, error) {
		return s.userRepo.VerifyPassword(ctx, strings.ToLower(strings.TrimSpace(email)), password)
	})
	if err != nil {
		// unknown email and wrong password look the same to the caller
		if errors.Is(err, models.ErrUserNotFound) {
			err = models.ErrInvalidPassword
		}
		return nil, "", "", fmt.Errorf("ошибка аутентификации: %w", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, claims *Claims) error {
	err := boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		return s.userRepo.ClearRefreshToken(ctx, claims.UserID)
	})
	if err != nil {
		return fmt.Errorf("ошибка выхода из аккаунта: %w", err)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("ошибка отзыва access token: %w", err)
	}

	return nil
}

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	user, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.User, error) {
		return s.userRepo.GetUserByRefreshToken(ctx, refreshToken)
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("недействительный refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*models.User, string, string, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка генерации access token: %w", err)
	}

	refreshToken, refreshTokenExpiry, err := s.generateRefreshToken()
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка генерации refresh token: %w", err)
	}

	err = boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		return s.userRepo.UpdateRefreshToken(ctx, user.UserID, refreshToken, refreshTokenExpiry)
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка сохранения refresh token: %w", err)
	}

	user.RefreshToken = refreshToken
	user.RefreshTokenExpiryTime = refreshTokenExpiry

	return user, accessToken, refreshToken, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.UserID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return tokenString, nil
}

func (s *authService) generateRefreshToken() (string, time.Time, error) {
	refreshToken := uuid.New().String()

	expiryTime := time.Now().Add(s.cfg.RefreshTokenDuration)

	return refreshToken, expiryTime, nil
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга токена: %w: %w", models.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, models.ErrInvalidToken
	}

	return token, nil
}

// ParseToken validates the token and rejects tokens revoked by Logout.
func (s *authService) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, fmt.Errorf("неверный формат claims: %w", models.ErrInvalidToken)
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		// fail open while Redis is unavailable
		log.Printf("Ошибка проверки отзыва токена: %v", err)
	}
	if revoked {
		return nil, fmt.Errorf("токен отозван: %w", models.ErrInvalidToken)
	}

	return claims, nil
}

// GetUserFromToken returns the current user id (and email) carried by the
// token.
func (s *authService) GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ParseToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	return &models.User{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
