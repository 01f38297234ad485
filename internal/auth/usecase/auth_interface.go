package usecase

import (
	"context"

	authdomain "inboxai-backend/internal/auth/domain"
	authdto "inboxai-backend/internal/auth/dto"
)

type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	// GoogleConnect exchanges an OAuth authorization code and stores the
	// resulting Google credentials on the user.
	GoogleConnect(ctx context.Context, userID, code string) (*authdomain.User, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)
	// TokenPersister returns the callback that writes refreshed Google
	// tokens back to the user record.
	TokenPersister(userID string) authdomain.TokenUpdateFunc
}
