package service

import (
	"context"
	"errors"
	"net/mail"

	"chat-service/apperr"
	"chat-service/config"
	"chat-service/event"
	"chat-service/model"
	"chat-service/repository"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 14

// AuthService owns registration, login and user status.
type AuthService struct {
	users *repository.UserRepository
	bus   *event.Bus
}

func NewAuthService(users *repository.UserRepository, bus *event.Bus) *AuthService {
	return &AuthService{users: users, bus: bus}
}

// Register hashes the password and inserts the user. The uniqueness check
// and insert are one atomic statement; a duplicate maps to
// ErrDuplicateIdentity.
func (s *AuthService) Register(ctx context.Context, user *model.User) error {
	if user.Username == "" || user.Email == "" || user.Password == "" {
		return apperr.InvalidArgument("username, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcryptCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer(),
		AccountName: user.Email,
		SecretSize:  15,
	})
	if err != nil {
		return err
	}
	user.Otp_secret = key.Secret()

	user.Role = "user"
	user.Status = model.StatusOffline

	return s.users.Create(ctx, user)
}

// Login verifies credentials and transitions the user online. An unknown
// login and a wrong password are indistinguishable to callers.
func (s *AuthService) Login(ctx context.Context, login, password string) (*model.User, error) {
	var user *model.User
	var err error

	if _, errParse := mail.ParseAddress(login); errParse == nil {
		user, err = s.users.ByEmail(ctx, login)
	} else {
		user, err = s.users.ByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrAuthFailed
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.ErrAuthFailed
	}

	if err := s.UpdateStatus(ctx, user.ID, model.StatusOnline); err != nil {
		return nil, err
	}
	user.Status = model.StatusOnline
	return user, nil
}

// Logout transitions the user offline.
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	return s.UpdateStatus(ctx, userID, model.StatusOffline)
}

// UpdateStatus persists the new status plus last_seen and notifies every
// subscriber.
func (s *AuthService) UpdateStatus(ctx context.Context, userID uint, status model.UserStatus) error {
	switch status {
	case model.StatusOnline, model.StatusOffline, model.StatusAway, model.StatusBusy:
	default:
		return apperr.InvalidArgument("unknown status")
	}

	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		return err
	}
	s.bus.UserStatusChanged(userID, status)
	return nil
}

func (s *AuthService) UserByID(ctx context.Context, userID uint) (*model.User, error) {
	return s.users.ByID(ctx, userID)
}

func (s *AuthService) SearchUsers(ctx context.Context, keyword string) ([]model.User, error) {
	return s.users.Search(ctx, keyword)
}

func (s *AuthService) AllUsers(ctx context.Context) ([]model.User, error) {
	return s.users.All(ctx)
}

func (s *AuthService) SaveUser(ctx context.Context, user *model.User) error {
	return s.users.Save(ctx, user)
}

// ChangePassword re-hashes after verifying the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if next == "" {
		return apperr.InvalidArgument("new password is required")
	}
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return apperr.ErrAuthFailed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func otpIssuer() string {
	if issuer := config.Config("OTP_ISSUER"); issuer != "" {
		return issuer
	}
	return "chat-service"
}
