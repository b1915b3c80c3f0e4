package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/model"
)

// =========================================================================
// CREATE
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	u := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if u.ID == "" {
		t.Error("CreateUser() did not set ID")
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set CreatedAt")
	}
	if u.ImageURL != model.DefaultImageURL {
		t.Errorf("ImageURL = %q, want default %q", u.ImageURL, model.DefaultImageURL)
	}
	if u.HeaderImageURL != model.DefaultHeaderImageURL {
		t.Errorf("HeaderImageURL = %q, want default %q", u.HeaderImageURL, model.DefaultHeaderImageURL)
	}
}

func TestCreateUser_Duplicates(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same username", "alice", "other@example.com"},
		{"same email", "bob", "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			original := createTestUser(t, db, "alice")

			dup := &model.User{Username: tt.username, Email: tt.email, PasswordHash: "other"}
			err := db.CreateUser(context.Background(), dup)
			if !errors.Is(err, apperror.ErrConflict) {
				t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
			}
			if dup.ID != "" {
				t.Errorf("failed insert left ID %q on the struct", dup.ID)
			}

			// The prior row is untouched.
			got, err := db.GetUserByID(context.Background(), original.ID)
			if err != nil {
				t.Fatalf("GetUserByID() error = %v", err)
			}
			if got.Email != original.Email || got.PasswordHash != original.PasswordHash {
				t.Errorf("original user changed: %+v", got)
			}

			users, _ := db.ListUsers(context.Background(), "")
			if len(users) != 1 {
				t.Errorf("len(users) = %d, want 1", len(users))
			}
		})
	}
}

// =========================================================================
// READ
// =========================================================================

func TestGetUserByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "carol")

	found, err := db.GetUserByUsername(context.Background(), "carol")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}

	_, err = db.GetUserByUsername(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByUsername(nobody) error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestListUsers_Search(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "warbler_fan")
	createTestUser(t, db, "Warbling")
	createTestUser(t, db, "zed")

	all, err := db.ListUsers(context.Background(), "")
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	matched, err := db.ListUsers(context.Background(), "warbl")
	if err != nil {
		t.Fatalf("ListUsers(warbl) error = %v", err)
	}
	if len(matched) != 2 {
		t.Errorf("len(matched) = %d, want 2", len(matched))
	}
}

func TestListUsers_WildcardsMatchLiterally(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")
	createTestUser(t, db, "under_score")
	createTestUser(t, db, "back\\slash")

	tests := []struct {
		search string
		want   []string
	}{
		{"_", []string{"under_score"}},
		{"%", nil},
		{"r_s", []string{"under_score"}},
		{`\`, []string{`back\slash`}},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			users, err := db.ListUsers(context.Background(), tt.search)
			if err != nil {
				t.Fatalf("ListUsers(%q) error = %v", tt.search, err)
			}
			var got []string
			for _, u := range users {
				got = append(got, u.Username)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListUsers(%q) = %v, want %v", tt.search, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ListUsers(%q) = %v, want %v", tt.search, got, tt.want)
				}
			}
		})
	}
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "dave")

	u.Bio = "hello there"
	u.ImageURL = "https://example.com/me.png"
	if err := db.UpdateUser(context.Background(), u); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	got, _ := db.GetUserByID(context.Background(), u.ID)
	if got.Bio != "hello there" || got.ImageURL != "https://example.com/me.png" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "erin")
	frank := createTestUser(t, db, "frank")

	frank.Username = "erin"
	err := db.UpdateUser(context.Background(), frank)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateUser() error = %v, want ErrConflict", err)
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gone := createTestUser(t, db, "gone")
	stays := createTestUser(t, db, "stays")

	msg := createTestMessage(t, db, gone, "bye", nowUTC())
	other := createTestMessage(t, db, stays, "still here", nowUTC())
	if err := db.Follow(ctx, gone.ID, stays.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.Follow(ctx, stays.ID, gone.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ToggleLike(ctx, gone.ID, other.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ToggleLike(ctx, stays.ID, msg.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateDirectMessage(ctx, &model.DirectMessage{SenderID: stays.ID, RecipientID: gone.ID, Text: "hi"}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteUser(ctx, gone.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	if _, err := db.GetMessage(ctx, msg.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("owned message survived deletion: err = %v", err)
	}
	stats, err := db.UserStats(ctx, stays.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *stats != (model.UserStats{Messages: 1}) {
		t.Errorf("stats after delete = %+v, want only 1 message", *stats)
	}
	dms, _ := db.ListDirectMessages(ctx, stays.ID)
	if len(dms) != 0 {
		t.Errorf("direct messages survived deletion: %d", len(dms))
	}
}

func TestUserStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, db, "a")
	b := createTestUser(t, db, "b")
	c := createTestUser(t, db, "c")

	m := createTestMessage(t, db, b, "one", nowUTC())
	createTestMessage(t, db, a, "two", nowUTC())
	db.Follow(ctx, a.ID, b.ID)
	db.Follow(ctx, a.ID, c.ID)
	db.Follow(ctx, c.ID, a.ID)
	db.ToggleLike(ctx, a.ID, m.ID)

	stats, err := db.UserStats(ctx, a.ID)
	if err != nil {
		t.Fatalf("UserStats() error = %v", err)
	}
	want := model.UserStats{Messages: 1, Following: 2, Followers: 1, Likes: 1}
	if *stats != want {
		t.Errorf("UserStats() = %+v, want %+v", *stats, want)
	}
}
