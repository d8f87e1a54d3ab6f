package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"collab-app/internal/config"
	"collab-app/internal/database"
	"collab-app/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, byID: make(map[int]*models.User)}
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUsers) CreateUser(_ context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == req.Email {
			return nil, database.ErrEmailTaken
		}
	}
	u := &models.User{ID: f.nextID, DisplayName: req.DisplayName, Email: req.Email, PasswordHash: string(hash)}
	f.byID[u.ID] = u
	f.nextID++
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: []byte("test-secret"), ExpiresIn: time.Hour}}
}

func register(t *testing.T, s *Service) *models.LoginResponse {
	t.Helper()
	resp, err := s.Register(context.Background(), &models.RegisterRequest{
		DisplayName: "  alice  ",
		Email:       "alice@example.com",
		Password:    "correct horse",
	})
	require.NoError(t, err)
	return resp
}

func TestAuthenticateResolvesUser(t *testing.T) {
	s := NewService(newFakeUsers(), testConfig())
	resp := register(t, s)

	user, err := s.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, "alice", user.DisplayName)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthenticateRejections(t *testing.T) {
	users := newFakeUsers()
	s := NewService(users, testConfig())

	_, err := s.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = s.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)

	other := NewService(users, &config.Config{JWT: config.JWTConfig{Secret: []byte("other"), ExpiresIn: time.Hour}})
	forged, err := other.GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)
	_, err = s.Authenticate(context.Background(), forged)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.Authenticate(context.Background(), expiredToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	ghost, err := s.GenerateToken(&models.User{ID: 42})
	require.NoError(t, err)
	_, err = s.Authenticate(context.Background(), ghost)
	assert.ErrorIs(t, err, ErrUserNotFound)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}})
	badToken, err := badSubject.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.Authenticate(context.Background(), badToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenCarriesSubject(t *testing.T) {
	s := NewService(newFakeUsers(), testConfig())
	token, err := s.GenerateToken(&models.User{ID: 7, DisplayName: "gus", Email: "gus@example.com"})
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(7), claims.Subject)
	assert.Equal(t, "gus", claims.DisplayName)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestLogin(t *testing.T) {
	s := NewService(newFakeUsers(), testConfig())
	register(t, s)

	resp, err := s.Login(context.Background(), &models.LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.PasswordHash)

	_, err = s.Login(context.Background(), &models.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.EqualError(t, err, "invalid credentials")

	_, err = s.Login(context.Background(), &models.LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	assert.EqualError(t, err, "invalid credentials")
}

func TestRegisterValidation(t *testing.T) {
	s := NewService(newFakeUsers(), testConfig())
	cases := map[string]models.RegisterRequest{
		"missing fields": {Email: "a@example.com", Password: "longenough"},
		"bad email":      {DisplayName: "alice", Email: "nope", Password: "longenough"},
		"short password": {DisplayName: "alice", Email: "a@example.com", Password: "short"},
		"short name":     {DisplayName: " al ", Email: "a@example.com", Password: "longenough"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Register(context.Background(), &req)
			assert.Error(t, err)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := NewService(newFakeUsers(), testConfig())
	register(t, s)

	_, err := s.Register(context.Background(), &models.RegisterRequest{
		DisplayName: "alice again",
		Email:       "alice@example.com",
		Password:    "another horse",
	})
	assert.ErrorIs(t, err, database.ErrEmailTaken)
	assert.EqualError(t, err, "email already registered")
}

func TestIsCredentialError(t *testing.T) {
	s := NewService(newFakeUsers(), testConfig())

	_, err := s.Authenticate(context.Background(), "garbage")
	assert.True(t, IsCredentialError(err))
	assert.True(t, IsCredentialError(ErrMissingToken))
	assert.True(t, IsCredentialError(ErrUserNotFound))
	assert.True(t, IsCredentialError(fmt.Errorf("%w: bad subject", ErrInvalidToken)))
	assert.False(t, IsCredentialError(errors.New("failed to resolve user: connection refused")))
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=query-token", nil)
	assert.Equal(t, "query-token", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", TokenFromRequest(r))

	r.Header.Set("Authorization", "bearer   spaced ")
	assert.Equal(t, "spaced", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	assert.Equal(t, "", TokenFromRequest(r))
}
