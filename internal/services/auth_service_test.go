package services_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"vuela/internal/models"
	"vuela/internal/services"
)

// MockAdminRepository is a mock implementation of repositories.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminRepository) Create(admin *models.Admin) error {
	args := m.Called(admin)
	return args.Error(0)
}

func hashedAdmin(t *testing.T, username, password string) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NoError(t, err)
	return &models.Admin{ID: "admin-1", Username: username, Password: string(hash)}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	mockRepo := new(MockAdminRepository)
	service := services.NewAuthService(mockRepo, "test_jwt_secret")

	// Account missing: it gets created with a hashed password.
	mockRepo.On("GetByUsername", "admin").Return(nil, fmt.Errorf("admin 'admin' not found")).Once()
	mockRepo.On("Create", mock.MatchedBy(func(a *models.Admin) bool {
		return a.Username == "admin" &&
			bcrypt.CompareHashAndPassword([]byte(a.Password), []byte("secret123")) == nil
	})).Return(nil).Once()

	err := service.EnsureAdmin("admin", "secret123")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Account already present: nothing is created.
	mockRepo.On("GetByUsername", "admin").Return(hashedAdmin(t, "admin", "secret123"), nil).Once()
	err = service.EnsureAdmin("admin", "secret123")
	assert.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	mockRepo := new(MockAdminRepository)
	service := services.NewAuthService(mockRepo, "test_jwt_secret")

	mockRepo.On("GetByUsername", "admin").Return(hashedAdmin(t, "admin", "secret123"), nil)

	token, err := service.Login("admin", "secret123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "admin", claims["username"])
}

func TestAuthService_LoginFailures(t *testing.T) {
	mockRepo := new(MockAdminRepository)
	service := services.NewAuthService(mockRepo, "test_jwt_secret")

	// Wrong password
	mockRepo.On("GetByUsername", "admin").Return(hashedAdmin(t, "admin", "secret123"), nil).Once()
	_, err := service.Login("admin", "wrong")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")

	// Unknown username: same error, no detail leaked.
	mockRepo.On("GetByUsername", "ghost").Return(nil, fmt.Errorf("admin 'ghost' not found")).Once()
	_, err = service.Login("ghost", "whatever")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	mockRepo := new(MockAdminRepository)
	service := services.NewAuthService(mockRepo, "test_jwt_secret")

	_, err := service.ValidateToken("not-a-token")
	assert.Error(t, err)

	// Token signed with a different secret is rejected.
	other := services.NewAuthService(mockRepo, "other_secret")
	mockRepo.On("GetByUsername", "admin").Return(hashedAdmin(t, "admin", "secret123"), nil).Once()
	token, err := other.Login("admin", "secret123")
	assert.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}
