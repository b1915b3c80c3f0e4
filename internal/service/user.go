package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/policy"
	"github.com/sakif/warbler/internal/repository"
)

// UserService serves profiles, the follow graph and likes pages, and
// mutates follows.
type UserService struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	messages repository.MessageRepository
	likes    repository.LikeRepository
	logger   *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	messages repository.MessageRepository,
	likes repository.LikeRepository,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		follows:  follows,
		messages: messages,
		likes:    likes,
		logger:   logger,
	}
}

// List returns every user, or those whose username contains search
// (case-insensitive).
func (s *UserService) List(ctx context.Context, search string) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}

// Profile is everything shown on a user's page. IsFollowing and
// IsFollowedBy describe the viewer's relationship to the user and stay
// false for anonymous viewers and for the user's own page.
type Profile struct {
	User         *model.User     `json:"user"`
	Stats        model.UserStats `json:"stats"`
	Messages     []model.Message `json:"messages"`
	IsFollowing  bool            `json:"isFollowing"`
	IsFollowedBy bool            `json:"isFollowedBy"`
}

// Profile is public; viewer only adds the relationship flags.
func (s *UserService) Profile(ctx context.Context, viewer *auth.Identity, userID string) (*Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.users.UserStats(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: counting stats for %s: %w", user.ID, err)
	}

	msgs, err := s.messages.ListMessagesByUser(ctx, user.ID, repository.TimelineLimit)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing messages of %s: %w", user.ID, err)
	}

	p := &Profile{User: user, Stats: *stats, Messages: msgs}
	if viewer != nil && viewer.UserID != "" && viewer.UserID != user.ID {
		if p.IsFollowing, err = s.IsFollowing(ctx, viewer.UserID, user.ID); err != nil {
			return nil, err
		}
		if p.IsFollowedBy, err = s.IsFollowedBy(ctx, user.ID, viewer.UserID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UserList is a user together with a list of related users.
type UserList struct {
	User  *model.User  `json:"user"`
	Users []model.User `json:"users"`
}

// Following lists who userID follows. Any logged-in user may look.
func (s *UserService) Following(ctx context.Context, actor *auth.Identity, userID string) (*UserList, error) {
	return s.followGraph(ctx, actor, userID, s.follows.ListFollowing)
}

// Followers lists who follows userID. Any logged-in user may look.
func (s *UserService) Followers(ctx context.Context, actor *auth.Identity, userID string) (*UserList, error) {
	return s.followGraph(ctx, actor, userID, s.follows.ListFollowers)
}

func (s *UserService) followGraph(
	ctx context.Context,
	actor *auth.Identity,
	userID string,
	list func(context.Context, string) ([]model.User, error),
) (*UserList, error) {
	if err := policy.Authorize(policy.ViewFollowGraph, actor, policy.None); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := list(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing follow graph of %s: %w", user.ID, err)
	}
	return &UserList{User: user, Users: users}, nil
}

// LikedMessages is a user's likes page.
type LikedMessages struct {
	User     *model.User     `json:"user"`
	Messages []model.Message `json:"messages"`
}

// Likes lists the messages userID has liked. Any logged-in user may look.
func (s *UserService) Likes(ctx context.Context, actor *auth.Identity, userID string) (*LikedMessages, error) {
	if err := policy.Authorize(policy.ViewLikes, actor, policy.None); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.likes.ListLikedMessages(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing likes of %s: %w", user.ID, err)
	}
	return &LikedMessages{User: user, Messages: msgs}, nil
}

// Follow makes the caller follow targetID. Following someone twice is a
// no-op; following yourself is forbidden and never creates an edge.
func (s *UserService) Follow(ctx context.Context, actor *auth.Identity, targetID string) error {
	if err := policy.Authorize(policy.FollowUser, actor, policy.Owner(targetID)); err != nil {
		return err
	}

	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.follows.Follow(ctx, actor.UserID, target.ID); err != nil {
		return fmt.Errorf("service/user: %s following %s: %w", actor.UserID, target.ID, err)
	}

	s.logger.Info("user followed",
		slog.String("followerID", actor.UserID),
		slog.String("followedID", target.ID),
	)
	return nil
}

// Unfollow removes the caller's follow edge to targetID if there is one.
func (s *UserService) Unfollow(ctx context.Context, actor *auth.Identity, targetID string) error {
	if err := policy.Authorize(policy.UnfollowUser, actor, policy.Owner(targetID)); err != nil {
		return err
	}

	if err := s.follows.Unfollow(ctx, actor.UserID, targetID); err != nil {
		return fmt.Errorf("service/user: %s unfollowing %s: %w", actor.UserID, targetID, err)
	}

	s.logger.Info("user unfollowed",
		slog.String("followerID", actor.UserID),
		slog.String("followedID", targetID),
	)
	return nil
}

// IsFollowing reports whether followerID follows followedID.
func (s *UserService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	ok, err := s.follows.IsFollowing(ctx, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("service/user: checking follow: %w", err)
	}
	return ok, nil
}

// IsFollowedBy reports whether followerID follows userID.
func (s *UserService) IsFollowedBy(ctx context.Context, userID, followerID string) (bool, error) {
	return s.IsFollowing(ctx, followerID, userID)
}
