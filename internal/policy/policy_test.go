package policy

import (
	"errors"
	"testing"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
)

func TestAuthorize(t *testing.T) {
	alice := &auth.Identity{UserID: "alice", SessionID: "s1"}

	tests := []struct {
		name     string
		action   Action
		actor    *auth.Identity
		resource Resource
		wantErr  error
		wantMsg  string
	}{
		// anonymous is always unauthorized
		{"anon view graph", ViewFollowGraph, nil, None, apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"anon view likes", ViewLikes, nil, None, apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"anon create", CreateMessage, nil, Owner("alice"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"anon delete", DeleteMessage, nil, Owner("alice"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"anon follow", FollowUser, nil, Owner("bob"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"anon like", LikeMessage, nil, Owner("bob"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"anon delete account", DeleteAccount, nil, Owner("alice"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"anon dm", SendDirectMessage, nil, None, apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"empty identity", ViewLikes, &auth.Identity{}, None, apperror.ErrUnauthorized, apperror.UnauthorizedMessage},

		// login is enough
		{"view graph", ViewFollowGraph, alice, None, nil, ""},
		{"view likes", ViewLikes, alice, None, nil, ""},
		{"dm", SendDirectMessage, alice, None, nil, ""},
		{"unfollow", UnfollowUser, alice, Owner("bob"), nil, ""},
		{"anon unfollow", UnfollowUser, nil, Owner("bob"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},

		// ownership required
		{"create own", CreateMessage, alice, Owner("alice"), nil, ""},
		{"delete own", DeleteMessage, alice, Owner("alice"), nil, ""},
		{"delete other's", DeleteMessage, alice, Owner("bob"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"delete missing", DeleteMessage, alice, None, apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"edit own profile", EditProfile, alice, Owner("alice"), nil, ""},
		{"edit other profile", EditProfile, alice, Owner("bob"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
		{"delete own account", DeleteAccount, alice, Owner("alice"), nil, ""},
		{"delete other account", DeleteAccount, alice, Owner("bob"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},

		// self-targeting forbidden
		{"follow other", FollowUser, alice, Owner("bob"), nil, ""},
		{"follow self", FollowUser, alice, Owner("alice"), apperror.ErrForbidden, SelfFollowMessage},
		{"like other's", LikeMessage, alice, Owner("bob"), nil, ""},
		{"like own", LikeMessage, alice, Owner("alice"), apperror.ErrForbidden, SelfLikeMessage},

		{"unknown action", Action(99), alice, Owner("alice"), apperror.ErrUnauthorized, apperror.UnauthorizedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.action, tt.actor, tt.resource)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Authorize() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authorize() error = %v, want %v", err, tt.wantErr)
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Authorize() error %T is not an *AppError", err)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestAction_String(t *testing.T) {
	if got := LikeMessage.String(); got != "like_message" {
		t.Errorf("LikeMessage.String() = %q", got)
	}
	if got := Action(42).String(); got != "action(42)" {
		t.Errorf("Action(42).String() = %q", got)
	}
}
