package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kostkita/kostkita/backend/internal/database/dberr"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultProfileCacheTTL = 5 * time.Minute
	minPasswordLength      = 6
	maxPasswordBytes       = 72
)

var (
	// ErrInvalidCredentials indicates an unknown login or a wrong password.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrDuplicateUser indicates the username or email is already taken.
	ErrDuplicateUser = errors.New("users: username or email already exists")
	// ErrNotFound indicates the account does not exist.
	ErrNotFound = errors.New("users: user not found")
	// ErrInvalidUser indicates a required field is missing or malformed.
	ErrInvalidUser = errors.New("users: invalid user")
)

// ServiceConfig describes the dependencies of the account service.
type ServiceConfig struct {
	Database        *gorm.DB
	Logger          *zap.Logger
	Clock           func() time.Time
	ProfileCacheTTL time.Duration
	IDGenerator     func() string
}

// Service manages administrator accounts and their credentials.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
	profiles *cache.Cache
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	idGenerator := cfg.IDGenerator
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	ttl := cfg.ProfileCacheTTL
	if ttl <= 0 {
		ttl = defaultProfileCacheTTL
	}
	return &Service{
		db:       cfg.Database,
		logger:   logger,
		now:      clock,
		newID:    idGenerator,
		profiles: cache.New(ttl, 2*ttl),
	}, nil
}

// HashPassword returns the bcrypt hash of the password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate resolves the account whose username or email equals login and checks the password.
func (s *Service) Authenticate(ctx context.Context, login, password string) (User, error) {
	login = normalize(login)
	if login == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	var user User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("user lookup failed", zap.String("login", login), zap.Error(err))
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates an administrator account.
func (s *Service) Register(ctx context.Context, registration Registration) (User, error) {
	username := normalize(registration.Username)
	email := normalize(registration.Email)
	fullName := normalize(registration.FullName)
	if username == "" || email == "" || fullName == "" || registration.Password == "" {
		return User{}, fmt.Errorf("%w: all fields are required", ErrInvalidUser)
	}
	if err := validatePassword(registration.Password); err != nil {
		return User{}, err
	}

	hash, err := HashPassword(registration.Password)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return User{}, err
	}

	user := User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         RoleAdmin,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if dberr.IsDuplicateKey(err) {
			return User{}, ErrDuplicateUser
		}
		s.logger.Error("user insert failed", zap.String("username", username), zap.Error(err))
		return User{}, err
	}
	return user, nil
}

// Profile returns the account, served from cache when possible.
func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	if cached, ok := s.profiles.Get(userID); ok {
		if user, ok := cached.(User); ok {
			return user, nil
		}
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return User{}, err
	}
	s.profiles.SetDefault(userID, user)
	return user, nil
}

// UpdateProfile changes the email and full name of the account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (User, error) {
	updates := map[string]interface{}{}
	if email := normalize(update.Email); email != "" {
		updates["email"] = email
	}
	if fullName := normalize(update.FullName); fullName != "" {
		updates["full_name"] = fullName
	}
	if len(updates) == 0 {
		return User{}, fmt.Errorf("%w: nothing to update", ErrInvalidUser)
	}

	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		if dberr.IsDuplicateKey(result.Error) {
			return User{}, ErrDuplicateUser
		}
		s.logger.Error("profile update failed", zap.String("user_id", userID), zap.Error(result.Error))
		return User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return User{}, ErrNotFound
	}
	s.profiles.Delete(userID)
	return s.Profile(ctx, userID)
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new password are required", ErrInvalidUser)
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return err
	}
	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password_hash", hash).Error; err != nil {
		s.logger.Error("password update failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	s.profiles.Delete(userID)
	return nil
}

// validatePassword bounds a new password; bcrypt refuses input over 72 bytes.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password exceeds %d bytes", ErrInvalidUser, maxPasswordBytes)
	}
	return nil
}

func (s *Service) load(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		s.logger.Error("user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return User{}, err
	}
	return user, nil
}
