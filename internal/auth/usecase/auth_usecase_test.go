package usecase

import (
	"testing"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	authdto "inboxai-backend/internal/auth/dto"
	"inboxai-backend/internal/auth/repository"
	"inboxai-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(user *authdomain.User) error {
	args := m.Called(user)
	user.ID = "user-1"
	return args.Error(0)
}

func (m *mockUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authdomain.User), args.Error(1)
}

func (m *mockUserRepo) FindByID(id string) (*authdomain.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authdomain.User), args.Error(1)
}

func (m *mockUserRepo) FindGoogleConnected() ([]*authdomain.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authdomain.User), args.Error(1)
}

func (m *mockUserRepo) Update(user *authdomain.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUserRepo) SaveRefreshToken(token *authdomain.RefreshToken) error {
	return m.Called(token).Error(0)
}

func (m *mockUserRepo) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authdomain.RefreshToken), args.Error(1)
}

func (m *mockUserRepo) DeleteRefreshToken(token string) error {
	return m.Called(token).Error(0)
}

func (m *mockUserRepo) DeleteRefreshTokensByUser(userID string) error {
	return m.Called(userID).Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
	}
}

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepo)
	hashed, err := repository.HashPassword("password123")
	require.NoError(t, err)

	repo.On("FindByEmail", "user@example.com").Return(&authdomain.User{
		ID:       "user-1",
		Email:    "user@example.com",
		Password: hashed,
		Provider: "email",
	}, nil)
	repo.On("SaveRefreshToken", mock.Anything).Return(nil)

	uc := NewAuthUsecase(repo, testConfig())
	resp, err := uc.Login(&authdto.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(mockUserRepo)
	hashed, _ := repository.HashPassword("password123")
	repo.On("FindByEmail", "user@example.com").Return(&authdomain.User{
		Email:    "user@example.com",
		Password: hashed,
	}, nil)

	uc := NewAuthUsecase(repo, testConfig())
	_, err := uc.Login(&authdto.LoginRequest{Email: "user@example.com", Password: "wrong"})
	assert.EqualError(t, err, "invalid email or password")
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByEmail", "nobody@example.com").Return(nil, nil)

	uc := NewAuthUsecase(repo, testConfig())
	_, err := uc.Login(&authdto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.EqualError(t, err, "invalid email or password")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByEmail", "user@example.com").Return(&authdomain.User{Email: "user@example.com"}, nil)

	uc := NewAuthUsecase(repo, testConfig())
	_, err := uc.Register(&authdto.RegisterRequest{
		Email:    "user@example.com",
		Password: "password123",
		Name:     "User",
	})
	assert.EqualError(t, err, "email already registered")
}

func TestRegister_CreatesUserWithHashedPassword(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByEmail", "new@example.com").Return(nil, nil)
	repo.On("Create", mock.MatchedBy(func(u *authdomain.User) bool {
		return u.Email == "new@example.com" && u.Password != "password123" && u.Provider == "email"
	})).Return(nil)
	repo.On("SaveRefreshToken", mock.Anything).Return(nil)

	uc := NewAuthUsecase(repo, testConfig())
	resp, err := uc.Register(&authdto.RegisterRequest{
		Email:    "new@example.com",
		Password: "password123",
		Name:     "New User",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	repo.AssertExpectations(t)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	repo := new(mockUserRepo)
	user := &authdomain.User{ID: "user-1", Email: "user@example.com", Provider: "email"}
	hashed, _ := repository.HashPassword("password123")
	user.Password = hashed

	repo.On("FindByEmail", "user@example.com").Return(user, nil)
	repo.On("FindByID", "user-1").Return(user, nil)
	repo.On("SaveRefreshToken", mock.Anything).Return(nil)

	uc := NewAuthUsecase(repo, testConfig())
	resp, err := uc.Login(&authdto.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	validated, err := uc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", validated.ID)
}

func TestValidateToken_Garbage(t *testing.T) {
	uc := NewAuthUsecase(new(mockUserRepo), testConfig())
	_, err := uc.ValidateToken("not-a-jwt")
	assert.EqualError(t, err, "invalid token")
}

func TestTokenPersister_UpdatesStoredCredentials(t *testing.T) {
	repo := new(mockUserRepo)
	user := &authdomain.User{ID: "user-1", AccessToken: "old", RefreshToken: "keep-me"}
	repo.On("FindByID", "user-1").Return(user, nil)
	repo.On("Update", mock.MatchedBy(func(u *authdomain.User) bool {
		// A refresh without a new refresh token keeps the stored one.
		return u.AccessToken == "new" && u.RefreshToken == "keep-me"
	})).Return(nil)

	uc := NewAuthUsecase(repo, testConfig())
	persist := uc.TokenPersister("user-1")
	err := persist(&oauth2.Token{AccessToken: "new", Expiry: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
