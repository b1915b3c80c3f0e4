package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/policy"
	"github.com/sakif/warbler/internal/repository"
)

// MessageService posts, deletes and likes messages and assembles the home
// timeline.
type MessageService struct {
	messages repository.MessageRepository
	likes    repository.LikeRepository
	logger   *slog.Logger
}

func NewMessageService(
	messages repository.MessageRepository,
	likes repository.LikeRepository,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		likes:    likes,
		logger:   logger,
	}
}

// Create posts text as the caller.
func (s *MessageService) Create(ctx context.Context, actor *auth.Identity, text string) (*model.Message, error) {
	if err := policy.Authorize(policy.CreateMessage, actor, policy.Owner(actorID(actor))); err != nil {
		return nil, err
	}

	text, err := validateMessageText(text)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{UserID: actor.UserID, Text: text}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/message: creating message for %s: %w", actor.UserID, err)
	}

	s.logger.Info("message created",
		slog.String("messageID", msg.ID),
		slog.String("userID", msg.UserID),
	)
	return msg, nil
}

// Get returns one message with its author. Messages are public.
func (s *MessageService) Get(ctx context.Context, id string) (*model.Message, error) {
	return s.messages.GetMessage(ctx, id)
}

// Delete removes a message the caller owns. A message that does not exist
// is refused exactly like one owned by someone else.
func (s *MessageService) Delete(ctx context.Context, actor *auth.Identity, id string) error {
	if err := policy.Authorize(policy.DeleteMessage, actor, policy.Owner(actorID(actor))); err != nil {
		return err
	}

	resource := policy.None
	msg, err := s.messages.GetMessage(ctx, id)
	switch {
	case err == nil:
		resource = policy.Owner(msg.UserID)
	case !errors.Is(err, apperror.ErrNotFound):
		return fmt.Errorf("service/message: loading message %s: %w", id, err)
	}

	if err := policy.Authorize(policy.DeleteMessage, actor, resource); err != nil {
		s.logger.Warn("message delete refused",
			slog.String("messageID", id),
			slog.String("userID", actor.UserID),
		)
		return err
	}

	if err := s.messages.DeleteMessage(ctx, msg.ID); err != nil {
		return fmt.Errorf("service/message: deleting message %s: %w", msg.ID, err)
	}

	s.logger.Info("message deleted",
		slog.String("messageID", msg.ID),
		slog.String("userID", actor.UserID),
	)
	return nil
}

// ToggleLike likes the message if the caller has not, and unlikes it
// otherwise. It reports whether the message is liked afterwards. Liking
// your own message is forbidden.
func (s *MessageService) ToggleLike(ctx context.Context, actor *auth.Identity, messageID string) (bool, error) {
	if actor == nil || actor.UserID == "" {
		return false, apperror.Unauthorized()
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return false, err
	}

	if err := policy.Authorize(policy.LikeMessage, actor, policy.Owner(msg.UserID)); err != nil {
		return false, err
	}

	liked, err := s.likes.ToggleLike(ctx, actor.UserID, msg.ID)
	if err != nil {
		return false, fmt.Errorf("service/message: toggling like on %s: %w", msg.ID, err)
	}

	s.logger.Info("like toggled",
		slog.String("messageID", msg.ID),
		slog.String("userID", actor.UserID),
		slog.Bool("liked", liked),
	)
	return liked, nil
}

// Timeline is the home feed of a logged-in user.
type Timeline struct {
	Messages []model.Message `json:"messages"`
	// LikedIDs are the ids of the caller's liked messages, so the view can
	// mark them.
	LikedIDs []string `json:"likedIds"`
}

// Timeline returns the newest messages written by the caller or anyone the
// caller follows. Anonymous callers get nil and see the landing page.
func (s *MessageService) Timeline(ctx context.Context, actor *auth.Identity) (*Timeline, error) {
	if actor == nil || actor.UserID == "" {
		return nil, nil
	}

	msgs, err := s.messages.Timeline(ctx, actor.UserID, repository.TimelineLimit)
	if err != nil {
		return nil, fmt.Errorf("service/message: building timeline for %s: %w", actor.UserID, err)
	}

	liked, err := s.likes.ListLikedMessages(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/message: listing likes of %s: %w", actor.UserID, err)
	}
	ids := make([]string, 0, len(liked))
	for _, m := range liked {
		ids = append(ids, m.ID)
	}

	return &Timeline{Messages: msgs, LikedIDs: ids}, nil
}

func actorID(actor *auth.Identity) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}
