package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-service/apperr"
	"chat-service/model"

	"github.com/pquerna/otp/totp"
)

func TestTwoFactorLifecycle(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	user := &model.User{Username: "alice", Email: "alice@example.com", Password: "secret"}
	if err := svc.Register(ctx, user); err != nil {
		t.Fatalf("register: %v", err)
	}

	code := func() string {
		c, err := totp.GenerateCode(user.Otp_secret, time.Now())
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		return c
	}

	t.Run("secret requires password", func(t *testing.T) {
		if _, _, err := svc.OtpSecret(ctx, user.ID, "wrong"); !errors.Is(err, apperr.ErrAuthFailed) {
			t.Errorf("err = %v, want ErrAuthFailed", err)
		}
		secret, url, err := svc.OtpSecret(ctx, user.ID, "secret")
		if err != nil {
			t.Fatalf("otp secret: %v", err)
		}
		if secret != user.Otp_secret || url == "" {
			t.Error("secret or provisioning url missing")
		}
	})

	t.Run("validate before verify", func(t *testing.T) {
		if err := svc.OtpValidate(ctx, user.ID, code()); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("verify enables 2fa", func(t *testing.T) {
		if err := svc.OtpVerify(ctx, user.ID, "000000"); !errors.Is(err, apperr.ErrAuthFailed) {
			t.Errorf("bad code err = %v, want ErrAuthFailed", err)
		}
		if err := svc.OtpVerify(ctx, user.ID, code()); err != nil {
			t.Fatalf("verify: %v", err)
		}
		if err := svc.OtpVerify(ctx, user.ID, code()); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("double verify err = %v, want ErrConflict", err)
		}
	})

	t.Run("validate after verify", func(t *testing.T) {
		if err := svc.OtpValidate(ctx, user.ID, code()); err != nil {
			t.Errorf("validate: %v", err)
		}
		if err := svc.OtpValidate(ctx, user.ID, "000000"); !errors.Is(err, apperr.ErrAuthFailed) {
			t.Errorf("bad code err = %v, want ErrAuthFailed", err)
		}
	})

	t.Run("disable needs password and code", func(t *testing.T) {
		if err := svc.OtpDisable(ctx, user.ID, "wrong", code()); !errors.Is(err, apperr.ErrAuthFailed) {
			t.Errorf("err = %v, want ErrAuthFailed", err)
		}
		if err := svc.OtpDisable(ctx, user.ID, "secret", code()); err != nil {
			t.Fatalf("disable: %v", err)
		}
		if err := svc.OtpValidate(ctx, user.ID, code()); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("validate after disable err = %v, want ErrConflict", err)
		}
	})
}
