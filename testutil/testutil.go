// Package testutil holds shared test fixtures: an in-memory database
// with the production schema and a recording push callback.
package testutil

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"chat-service/database"
	"chat-service/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext behind every fixture user's hash.
const TestPassword = "password123"

// NewDB opens a fresh in-memory database with the full schema. The
// shared-cache DSN keeps every pooled connection on the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	database.Migrate(db)
	return db
}

// CreateUser inserts a user with a bcrypt hash of TestPassword.
func CreateUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		Role:     "user",
		Status:   model.StatusOffline,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

type PushedEvent struct {
	Event   string
	Payload any
}

// FakeCallback records every push. Set Fail to make Send error, which
// triggers registry eviction.
type FakeCallback struct {
	mu     sync.Mutex
	Fail   bool
	events []PushedEvent
}

func (c *FakeCallback) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail {
		return errors.New("send failed")
	}
	c.events = append(c.events, PushedEvent{Event: event, Payload: payload})
	return nil
}

func (c *FakeCallback) Events() []PushedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PushedEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *FakeCallback) Count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (c *FakeCallback) Last() (PushedEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return PushedEvent{}, false
	}
	return c.events[len(c.events)-1], true
}
