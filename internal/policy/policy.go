// Package policy holds the one authorization predicate every guarded
// operation goes through.
//
// GUARD RULES:
//   - no identity                      → ErrUnauthorized, for every action
//   - ViewFollowGraph, ViewLikes,
//     UnfollowUser, SendDirectMessage  → any logged-in user
//   - CreateMessage, DeleteMessage,
//     EditProfile, DeleteAccount       → actor must own the resource
//   - FollowUser, LikeMessage          → actor must NOT own the resource
//
// Ownership failures on the first group are reported as ErrUnauthorized too,
// so a caller cannot tell "someone else's" from "not logged in". The second
// group gets ErrForbidden with a message the user is meant to read.
package policy

import (
	"fmt"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
)

// Action names a guarded operation.
type Action int

const (
	ViewFollowGraph Action = iota + 1
	ViewLikes
	CreateMessage
	DeleteMessage
	FollowUser
	UnfollowUser
	LikeMessage
	DeleteAccount
	EditProfile
	SendDirectMessage
)

var actionNames = map[Action]string{
	ViewFollowGraph:   "view_follow_graph",
	ViewLikes:         "view_likes",
	CreateMessage:     "create_message",
	DeleteMessage:     "delete_message",
	FollowUser:        "follow_user",
	UnfollowUser:      "unfollow_user",
	LikeMessage:       "like_message",
	DeleteAccount:     "delete_account",
	EditProfile:       "edit_profile",
	SendDirectMessage: "send_direct_message",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Messages shown when a logged-in user targets themselves.
const (
	SelfFollowMessage = "You can not follow yourself!"
	SelfLikeMessage   = "You can not like your own message!"
)

// Resource describes what an action touches. OwnerID is the user who owns
// it: the message owner for message actions, the target user for follow
// and account actions. An empty OwnerID means the resource does not exist.
type Resource struct {
	OwnerID string
}

// Owner is shorthand for Resource{OwnerID: id}.
func Owner(id string) Resource {
	return Resource{OwnerID: id}
}

// None is the resource for actions that only need a login.
var None = Resource{}

// Authorize returns nil when actor may perform action on resource. A nil
// actor is an anonymous request.
func Authorize(action Action, actor *auth.Identity, resource Resource) error {
	if actor == nil || actor.UserID == "" {
		return apperror.Unauthorized()
	}

	switch action {
	case ViewFollowGraph, ViewLikes, UnfollowUser, SendDirectMessage:
		return nil

	case CreateMessage, DeleteMessage, EditProfile, DeleteAccount:
		if resource.OwnerID == "" || resource.OwnerID != actor.UserID {
			return apperror.Unauthorized()
		}
		return nil

	case FollowUser:
		if resource.OwnerID == actor.UserID {
			return apperror.Forbidden(SelfFollowMessage)
		}
		return nil

	case LikeMessage:
		if resource.OwnerID == actor.UserID {
			return apperror.Forbidden(SelfLikeMessage)
		}
		return nil
	}

	return fmt.Errorf("policy: unknown action %s: %w", action, apperror.Unauthorized())
}
