package users

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newUserService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("failed to migrate user schema: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock: func() time.Time {
			return time.Unix(1717200000, 0)
		},
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, db
}

func registerAdmin(t *testing.T, service *Service) User {
	t.Helper()
	user, err := service.Register(context.Background(), Registration{
		Username: "admin",
		Email:    "admin@kostkita.com",
		Password: "admin123",
		FullName: "Administrator",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return user
}

func TestRegisterHashesPasswordAndAssignsAdminRole(t *testing.T) {
	service, _ := newUserService(t)
	user := registerAdmin(t, service)

	if user.ID == "" || user.Role != RoleAdmin {
		t.Fatalf("unexpected registered user %#v", user)
	}
	if user.PasswordHash == "admin123" || user.PasswordHash == "" {
		t.Fatalf("expected password to be hashed")
	}
	if !user.CreatedAt.Equal(time.Unix(1717200000, 0)) {
		t.Fatalf("unexpected created_at %v", user.CreatedAt)
	}
}

func TestRegisterRejectsDuplicatesAndMissingFields(t *testing.T) {
	service, _ := newUserService(t)
	registerAdmin(t, service)

	_, err := service.Register(context.Background(), Registration{
		Username: "admin",
		Email:    "other@kostkita.com",
		Password: "secret1",
		FullName: "Other",
	})
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected duplicate user error, got %v", err)
	}

	_, err = service.Register(context.Background(), Registration{Username: "x", Email: "x@kostkita.com"})
	if !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected invalid user error, got %v", err)
	}
}

func TestRegisterRejectsPasswordOutsideBounds(t *testing.T) {
	service, db := newUserService(t)

	testCases := []struct {
		name     string
		password string
	}{
		{name: "too short", password: "a"},
		{name: "beyond bcrypt limit", password: strings.Repeat("a", 73)},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.Register(context.Background(), Registration{
				Username: "tenant-admin",
				Email:    "tenant-admin@kostkita.com",
				Password: testCase.password,
				FullName: "Tenant Admin",
			})
			if !errors.Is(err, ErrInvalidUser) {
				t.Fatalf("expected invalid user error, got %v", err)
			}
		})
	}

	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no users to be stored, got %d", count)
	}
}

func TestAuthenticateAcceptsUsernameOrEmail(t *testing.T) {
	service, _ := newUserService(t)
	registered := registerAdmin(t, service)

	for _, login := range []string{"admin", "admin@kostkita.com"} {
		user, err := service.Authenticate(context.Background(), login, "admin123")
		if err != nil {
			t.Fatalf("authenticate %q failed: %v", login, err)
		}
		if user.ID != registered.ID {
			t.Fatalf("expected %s, got %s", registered.ID, user.ID)
		}
	}

	if _, err := service.Authenticate(context.Background(), "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for wrong password, got %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "nobody", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown login, got %v", err)
	}
}

func TestProfileIsCachedUntilUpdated(t *testing.T) {
	service, db := newUserService(t)
	registered := registerAdmin(t, service)

	profile, err := service.Profile(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.FullName != "Administrator" {
		t.Fatalf("unexpected profile %#v", profile)
	}

	// Out-of-band writes stay invisible while the entry is cached.
	if err := db.Model(&User{}).Where("id = ?", registered.ID).Update("full_name", "Changed Elsewhere").Error; err != nil {
		t.Fatalf("direct update failed: %v", err)
	}
	cached, err := service.Profile(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if cached.FullName != "Administrator" {
		t.Fatalf("expected cached profile, got %q", cached.FullName)
	}

	updated, err := service.UpdateProfile(context.Background(), registered.ID, ProfileUpdate{FullName: "Pengelola Kos"})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.FullName != "Pengelola Kos" || updated.Email != "admin@kostkita.com" {
		t.Fatalf("unexpected updated profile %#v", updated)
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	service, _ := newUserService(t)
	if _, err := service.UpdateProfile(context.Background(), "ghost", ProfileUpdate{FullName: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChangePasswordVerifiesOldPassword(t *testing.T) {
	service, _ := newUserService(t)
	registered := registerAdmin(t, service)

	if err := service.ChangePassword(context.Background(), registered.ID, "wrong", "newsecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), registered.ID, "admin123", "short"); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected invalid user for short password, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), registered.ID, "admin123", strings.Repeat("b", 73)); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected invalid user for oversized password, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), registered.ID, "admin123", "newsecret"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "admin", "newsecret"); err != nil {
		t.Fatalf("expected new password to authenticate: %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "admin", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
}
