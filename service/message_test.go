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

type messageFixture struct {
	svc         *MessageService
	friendships *FriendshipService
	groups      *GroupService
	db          *gorm.DB
	reg         *registry.Registry
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	db := testutil.NewDB(t)
	reg := registry.New()
	groupRepo := repository.NewGroupRepository(db)
	userRepo := repository.NewUserRepository(db)
	bus := event.NewBus(reg, groupRepo)
	friendships := NewFriendshipService(repository.NewFriendshipRepository(db), userRepo, bus)
	return &messageFixture{
		svc:         NewMessageService(repository.NewMessageRepository(db), groupRepo, friendships, bus),
		friendships: friendships,
		groups:      NewGroupService(groupRepo, userRepo, bus),
		db:          db,
		reg:         reg,
	}
}

func direct(sender, receiver uint, content string) SendMessageInput {
	return SendMessageInput{
		SenderID:   sender,
		ReceiverID: &receiver,
		Content:    content,
		Kind:       model.KindText,
	}
}

func TestSendDirectMessage(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, fx.db, "alice")
	bob := testutil.CreateUser(t, fx.db, "bob")

	bobCb := &testutil.FakeCallback{}
	fx.reg.Register(event.Subject(bob.ID), bobCb)

	t.Run("persists and pushes", func(t *testing.T) {
		msg, err := fx.svc.Send(ctx, direct(alice.ID, bob.ID, "hi bob"))
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if msg.SenderName != "alice" {
			t.Errorf("sender name = %q, want alice", msg.SenderName)
		}
		if bobCb.Count(event.EventMessage) != 1 {
			t.Errorf("bob got %d pushes, want 1", bobCb.Count(event.EventMessage))
		}
	})

	t.Run("both targets set", func(t *testing.T) {
		in := direct(alice.ID, bob.ID, "hi")
		groupID := uint(1)
		in.GroupID = &groupID
		if _, err := fx.svc.Send(ctx, in); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("no target set", func(t *testing.T) {
		in := SendMessageInput{SenderID: alice.ID, Content: "hi", Kind: model.KindText}
		if _, err := fx.svc.Send(ctx, in); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		if _, err := fx.svc.Send(ctx, direct(alice.ID, bob.ID, "  ")); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("attachment needs file url", func(t *testing.T) {
		in := direct(alice.ID, bob.ID, "")
		in.Kind = model.KindImage
		if _, err := fx.svc.Send(ctx, in); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
		in.FileURL = "https://cdn.example.com/cat.png"
		if _, err := fx.svc.Send(ctx, in); err != nil {
			t.Errorf("send attachment: %v", err)
		}
	})

	t.Run("self message", func(t *testing.T) {
		if _, err := fx.svc.Send(ctx, direct(alice.ID, alice.ID, "hi me")); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestSendBlockGate(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, fx.db, "alice")
	bob := testutil.CreateUser(t, fx.db, "bob")

	if err := fx.friendships.Block(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("block: %v", err)
	}

	t.Run("blocker cannot send", func(t *testing.T) {
		_, err := fx.svc.Send(ctx, direct(alice.ID, bob.ID, "hi"))
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("blocked user cannot send", func(t *testing.T) {
		_, err := fx.svc.Send(ctx, direct(bob.ID, alice.ID, "hi"))
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("history hidden while blocked", func(t *testing.T) {
		msgs, err := fx.svc.ListDirect(ctx, alice.ID, bob.ID, 0, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("got %d messages, want 0", len(msgs))
		}
	})

	t.Run("unblock restores messaging", func(t *testing.T) {
		if err := fx.friendships.Unblock(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("unblock: %v", err)
		}
		if _, err := fx.svc.Send(ctx, direct(alice.ID, bob.ID, "hi again")); err != nil {
			t.Errorf("send after unblock: %v", err)
		}
	})
}

func TestGroupMessaging(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, fx.db, "alice")
	bob := testutil.CreateUser(t, fx.db, "bob")
	carol := testutil.CreateUser(t, fx.db, "carol")

	group, err := fx.groups.Create(ctx, alice.ID, "general", "", "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := fx.groups.AddMember(ctx, group.ID, alice.ID, bob.ID); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	aliceCb := &testutil.FakeCallback{}
	bobCb := &testutil.FakeCallback{}
	fx.reg.Register(event.Subject(alice.ID), aliceCb)
	fx.reg.Register(event.Subject(bob.ID), bobCb)

	groupMsg := SendMessageInput{
		SenderID: alice.ID,
		GroupID:  &group.ID,
		Content:  "hello group",
		Kind:     model.KindText,
	}

	t.Run("fans out to all members", func(t *testing.T) {
		if _, err := fx.svc.Send(ctx, groupMsg); err != nil {
			t.Fatalf("send: %v", err)
		}
		if bobCb.Count(event.EventMessage) != 1 {
			t.Errorf("bob got %d pushes, want 1", bobCb.Count(event.EventMessage))
		}
		if aliceCb.Count(event.EventMessage) != 1 {
			t.Errorf("sender got %d pushes, want 1", aliceCb.Count(event.EventMessage))
		}
	})

	t.Run("non-member cannot send", func(t *testing.T) {
		in := groupMsg
		in.SenderID = carol.ID
		if _, err := fx.svc.Send(ctx, in); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("non-member cannot read history", func(t *testing.T) {
		if _, err := fx.svc.ListGroup(ctx, group.ID, carol.ID, 0, 0); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("member reads history", func(t *testing.T) {
		msgs, err := fx.svc.ListGroup(ctx, group.ID, bob.ID, 0, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(msgs) != 1 {
			t.Errorf("got %d messages, want 1", len(msgs))
		}
	})
}

func TestListDirectPagination(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, fx.db, "alice")
	bob := testutil.CreateUser(t, fx.db, "bob")

	for _, content := range []string{"one", "two", "three", "four"} {
		if _, err := fx.svc.Send(ctx, direct(alice.ID, bob.ID, content)); err != nil {
			t.Fatalf("send %s: %v", content, err)
		}
	}

	t.Run("newest page in chronological order", func(t *testing.T) {
		msgs, err := fx.svc.ListDirect(ctx, bob.ID, alice.ID, 2, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("got %d messages, want 2", len(msgs))
		}
		if msgs[0].Content != "three" || msgs[1].Content != "four" {
			t.Errorf("page = [%s, %s], want [three, four]", msgs[0].Content, msgs[1].Content)
		}
	})

	t.Run("offset walks backwards", func(t *testing.T) {
		msgs, err := fx.svc.ListDirect(ctx, bob.ID, alice.ID, 2, 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("got %d messages, want 2", len(msgs))
		}
		if msgs[0].Content != "one" || msgs[1].Content != "two" {
			t.Errorf("page = [%s, %s], want [one, two]", msgs[0].Content, msgs[1].Content)
		}
	})
}

func TestMarkAsRead(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, fx.db, "alice")
	bob := testutil.CreateUser(t, fx.db, "bob")

	aliceCb := &testutil.FakeCallback{}
	fx.reg.Register(event.Subject(alice.ID), aliceCb)

	fx.svc.Send(ctx, direct(alice.ID, bob.ID, "one"))
	fx.svc.Send(ctx, direct(alice.ID, bob.ID, "two"))

	t.Run("marks and notifies sender", func(t *testing.T) {
		n, err := fx.svc.MarkAsRead(ctx, bob.ID, alice.ID)
		if err != nil {
			t.Fatalf("mark read: %v", err)
		}
		if n != 2 {
			t.Errorf("marked %d, want 2", n)
		}
		if aliceCb.Count(event.EventMessagesRead) != 1 {
			t.Errorf("alice got %d read events, want 1", aliceCb.Count(event.EventMessagesRead))
		}
	})

	t.Run("idempotent without new messages", func(t *testing.T) {
		n, err := fx.svc.MarkAsRead(ctx, bob.ID, alice.ID)
		if err != nil {
			t.Fatalf("mark read: %v", err)
		}
		if n != 0 {
			t.Errorf("marked %d, want 0", n)
		}
		if aliceCb.Count(event.EventMessagesRead) != 1 {
			t.Error("read event pushed with nothing to mark")
		}
	})

	t.Run("unread count", func(t *testing.T) {
		fx.svc.Send(ctx, direct(alice.ID, bob.ID, "three"))
		n, err := fx.svc.UnreadCount(ctx, bob.ID)
		if err != nil {
			t.Fatalf("unread: %v", err)
		}
		if n != 1 {
			t.Errorf("unread = %d, want 1", n)
		}
	})
}

func TestEditMessage(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, fx.db, "alice")
	bob := testutil.CreateUser(t, fx.db, "bob")

	msg, err := fx.svc.Send(ctx, direct(alice.ID, bob.ID, "hello"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	t.Run("only sender edits", func(t *testing.T) {
		if _, err := fx.svc.Edit(ctx, msg.ID, bob.ID, "hacked"); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("edit updates and flags", func(t *testing.T) {
		edited, err := fx.svc.Edit(ctx, msg.ID, alice.ID, "hello again")
		if err != nil {
			t.Fatalf("edit: %v", err)
		}
		if edited.Content != "hello again" || !edited.Edited {
			t.Errorf("edited = %+v", edited)
		}
	})
}

func TestDeleteMessage(t *testing.T) {
	fx := newMessageFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, fx.db, "alice")
	bob := testutil.CreateUser(t, fx.db, "bob")

	msg, err := fx.svc.Send(ctx, direct(alice.ID, bob.ID, "delete me"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	t.Run("only sender deletes", func(t *testing.T) {
		if err := fx.svc.Delete(ctx, msg.ID, bob.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("soft delete leaves placeholder", func(t *testing.T) {
		if err := fx.svc.Delete(ctx, msg.ID, alice.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		msgs, err := fx.svc.ListDirect(ctx, bob.ID, alice.ID, 0, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(msgs) != 1 {
			t.Fatalf("got %d messages, want 1", len(msgs))
		}
		if msgs[0].Content != repository.DeletedPlaceholder {
			t.Errorf("content = %q, want placeholder", msgs[0].Content)
		}
	})

	t.Run("deleted message cannot be edited", func(t *testing.T) {
		if _, err := fx.svc.Edit(ctx, msg.ID, alice.ID, "resurrect"); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("double delete", func(t *testing.T) {
		if err := fx.svc.Delete(ctx, msg.ID, alice.ID); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})
}
