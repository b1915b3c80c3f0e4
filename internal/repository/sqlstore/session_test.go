package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/warbler/internal/apperror"
)

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "sess")

	s, err := db.CreateSession(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if s.ID == "" || s.UserID != u.ID {
		t.Fatalf("CreateSession() = %+v", s)
	}

	got, err := db.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("UserID = %q, want %q", got.UserID, u.ID)
	}

	if err := db.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if err := db.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("second DeleteSession() error = %v", err)
	}
	if _, err := db.GetSession(ctx, s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}
}

func TestGetSession_Expired(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "stale")

	s, err := db.CreateSession(context.Background(), u.ID, -time.Minute)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if _, err := db.GetSession(context.Background(), s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSession(expired) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUserSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "multi")
	other := createTestUser(t, db, "other")

	a, _ := db.CreateSession(ctx, u.ID, time.Hour)
	b, _ := db.CreateSession(ctx, u.ID, time.Hour)
	keep, _ := db.CreateSession(ctx, other.ID, time.Hour)

	if err := db.DeleteUserSessions(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUserSessions() error = %v", err)
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, err := db.GetSession(ctx, id); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("session %s survived: err = %v", id, err)
		}
	}
	if _, err := db.GetSession(ctx, keep.ID); err != nil {
		t.Errorf("other user's session was removed: %v", err)
	}
}
