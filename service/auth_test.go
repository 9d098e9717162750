package service

import (
	"context"
	"errors"
	"testing"

	"chat-service/apperr"
	"chat-service/event"
	"chat-service/model"
	"chat-service/registry"
	"chat-service/repository"
	"chat-service/testutil"

	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T) (*AuthService, *gorm.DB, *registry.Registry) {
	t.Helper()
	db := testutil.NewDB(t)
	reg := registry.New()
	bus := event.NewBus(reg, repository.NewGroupRepository(db))
	return NewAuthService(repository.NewUserRepository(db), bus), db, reg
}

func TestRegister(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		user := &model.User{Username: "alice", Email: "alice@example.com", Password: "secret"}
		if err := svc.Register(ctx, user); err != nil {
			t.Fatalf("register: %v", err)
		}
		if user.ID == 0 {
			t.Error("user id not assigned")
		}
		if user.Password == "secret" {
			t.Error("password stored in plaintext")
		}
		if user.Otp_secret == "" {
			t.Error("otp secret not generated")
		}
		if user.Role != "user" {
			t.Errorf("role = %q, want user", user.Role)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := svc.Register(ctx, &model.User{Username: "alice", Email: "other@example.com", Password: "secret"})
		if !errors.Is(err, apperr.ErrDuplicateIdentity) {
			t.Errorf("err = %v, want ErrDuplicateIdentity", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := svc.Register(ctx, &model.User{Username: "alice2", Email: "alice@example.com", Password: "secret"})
		if !errors.Is(err, apperr.ErrDuplicateIdentity) {
			t.Errorf("err = %v, want ErrDuplicateIdentity", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		err := svc.Register(ctx, &model.User{Username: "bob"})
		if !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestLogin(t *testing.T) {
	svc, db, _ := newAuthFixture(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")

	t.Run("by username", func(t *testing.T) {
		user, err := svc.Login(ctx, "alice", testutil.TestPassword)
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if user.Status != model.StatusOnline {
			t.Errorf("status = %s, want online", user.Status)
		}
	})

	t.Run("by email", func(t *testing.T) {
		if _, err := svc.Login(ctx, "alice@example.com", testutil.TestPassword); err != nil {
			t.Fatalf("login by email: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "nope")
		if !errors.Is(err, apperr.ErrAuthFailed) {
			t.Errorf("err = %v, want ErrAuthFailed", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", testutil.TestPassword)
		if !errors.Is(err, apperr.ErrAuthFailed) {
			t.Errorf("err = %v, want ErrAuthFailed", err)
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	svc, db, reg := newAuthFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	observer := &testutil.FakeCallback{}
	reg.Register("99", observer)

	t.Run("broadcasts", func(t *testing.T) {
		if err := svc.UpdateStatus(ctx, alice.ID, model.StatusBusy); err != nil {
			t.Fatalf("update status: %v", err)
		}
		stored, err := svc.UserByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("reload user: %v", err)
		}
		if stored.Status != model.StatusBusy {
			t.Errorf("status = %s, want busy", stored.Status)
		}
		if stored.LastSeen == nil {
			t.Error("last_seen not set")
		}
		if observer.Count(event.EventUserStatus) != 1 {
			t.Errorf("observer got %d status events, want 1", observer.Count(event.EventUserStatus))
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		err := svc.UpdateStatus(ctx, alice.ID, "sleeping")
		if !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		err := svc.UpdateStatus(ctx, 999, model.StatusAway)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestChangePassword(t *testing.T) {
	svc, db, _ := newAuthFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, alice.ID, "nope", "newpass")
		if !errors.Is(err, apperr.ErrAuthFailed) {
			t.Errorf("err = %v, want ErrAuthFailed", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		if err := svc.ChangePassword(ctx, alice.ID, testutil.TestPassword, "newpass"); err != nil {
			t.Fatalf("change password: %v", err)
		}
		if _, err := svc.Login(ctx, "alice", "newpass"); err != nil {
			t.Errorf("login with new password: %v", err)
		}
		if _, err := svc.Login(ctx, "alice", testutil.TestPassword); !errors.Is(err, apperr.ErrAuthFailed) {
			t.Errorf("old password still accepted: %v", err)
		}
	})
}

func TestSearchUsers(t *testing.T) {
	svc, db, _ := newAuthFixture(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "alicia")
	testutil.CreateUser(t, db, "bob")

	users, err := svc.SearchUsers(ctx, "ali")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("found %d users, want 2", len(users))
	}
}
