package service

import (
	"context"
	"fmt"

	"chat-service/apperr"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// OtpSecret returns the user's TOTP secret and provisioning URL after a
// password re-check.
func (s *AuthService) OtpSecret(ctx context.Context, userID uint, password string) (secret, url string, err error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", apperr.ErrAuthFailed
	}

	issuer := otpIssuer()
	url = fmt.Sprintf("otpauth://totp/%s:%s?algorithm=SHA1&digits=6&issuer=%s&period=30&secret=%s",
		issuer, user.Email, issuer, user.Otp_secret)
	return user.Otp_secret, url, nil
}

// OtpVerify enables 2FA once the user proves possession of the secret.
func (s *AuthService) OtpVerify(ctx context.Context, userID uint, token string) error {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Otp_enabled {
		return apperr.Conflict("verification has already been performed")
	}
	if !totp.Validate(token, user.Otp_secret) {
		return apperr.ErrAuthFailed
	}
	user.Otp_enabled = true
	return s.users.Save(ctx, user)
}

// OtpValidate checks a login-time TOTP code.
func (s *AuthService) OtpValidate(ctx context.Context, userID uint, token string) error {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Otp_enabled {
		return apperr.Conflict("2FA is disabled")
	}
	if !totp.Validate(token, user.Otp_secret) {
		return apperr.ErrAuthFailed
	}
	return nil
}

// OtpDisable turns 2FA off after both password and code checks.
func (s *AuthService) OtpDisable(ctx context.Context, userID uint, password, token string) error {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Otp_enabled {
		return apperr.Conflict("2FA is not enabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return apperr.ErrAuthFailed
	}
	if !totp.Validate(token, user.Otp_secret) {
		return apperr.ErrAuthFailed
	}
	user.Otp_enabled = false
	return s.users.Save(ctx, user)
}
