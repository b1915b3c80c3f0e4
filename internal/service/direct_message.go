package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/policy"
	"github.com/sakif/warbler/internal/repository"
)

// DirectMessageService sends direct messages. A user can only write to
// people they follow.
type DirectMessageService struct {
	follows repository.FollowRepository
	dms     repository.DirectMessageRepository
	logger  *slog.Logger
}

func NewDirectMessageService(
	follows repository.FollowRepository,
	dms repository.DirectMessageRepository,
	logger *slog.Logger,
) *DirectMessageService {
	return &DirectMessageService{
		follows: follows,
		dms:     dms,
		logger:  logger,
	}
}

// DirectMessageForm is the compose view: the allowed recipients and the
// caller's conversation so far.
type DirectMessageForm struct {
	Choices  []model.UserSummary   `json:"choices"`
	Messages []model.DirectMessage `json:"messages"`
}

// Form returns the recipients the caller may write to and every direct
// message they sent or received.
func (s *DirectMessageService) Form(ctx context.Context, actor *auth.Identity) (*DirectMessageForm, error) {
	if err := policy.Authorize(policy.SendDirectMessage, actor, policy.None); err != nil {
		return nil, err
	}

	choices, err := s.choices(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.dms.ListDirectMessages(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/dm: listing direct messages of %s: %w", actor.UserID, err)
	}
	return &DirectMessageForm{Choices: choices, Messages: msgs}, nil
}

// Send writes text from the caller to recipientID, who must be someone the
// caller follows.
func (s *DirectMessageService) Send(ctx context.Context, actor *auth.Identity, recipientID, text string) (*model.DirectMessage, error) {
	if err := policy.Authorize(policy.SendDirectMessage, actor, policy.None); err != nil {
		return nil, err
	}

	text, err := validateMessageText(text)
	if err != nil {
		return nil, err
	}

	choices, err := s.choices(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	var recipient *model.UserSummary
	for i := range choices {
		if choices[i].ID == recipientID {
			recipient = &choices[i]
			break
		}
	}
	if recipient == nil {
		return nil, apperror.ValidationFailed("recipient", "Not a valid choice")
	}

	dm := &model.DirectMessage{
		SenderID:    actor.UserID,
		RecipientID: recipient.ID,
		Text:        text,
	}
	if err := s.dms.CreateDirectMessage(ctx, dm); err != nil {
		return nil, fmt.Errorf("service/dm: sending %s -> %s: %w", actor.UserID, recipient.ID, err)
	}
	dm.Recipient = *recipient

	s.logger.Info("direct message sent",
		slog.String("dmID", dm.ID),
		slog.String("senderID", dm.SenderID),
		slog.String("recipientID", dm.RecipientID),
	)
	return dm, nil
}

func (s *DirectMessageService) choices(ctx context.Context, userID string) ([]model.UserSummary, error) {
	following, err := s.follows.ListFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/dm: listing recipients of %s: %w", userID, err)
	}
	out := make([]model.UserSummary, 0, len(following))
	for i := range following {
		out = append(out, following[i].Summary())
	}
	return out, nil
}
