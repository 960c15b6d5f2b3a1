package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"Agora/internal/apperrors"
	"Agora/internal/models"
	"Agora/internal/storage"
)

const DefaultPageSize = 20

type MessageConfig struct {
	// StaticRoot prefixes profile picture paths, e.g. "/static".
	StaticRoot string
	// PageSize is the most messages one history request returns.
	PageSize int
	// MaxContentLength limits message content in runes; zero disables the check.
	MaxContentLength int
}

type MessageService struct {
	store    storage.Store
	notifier Notifier
	cfg      MessageConfig
	now      func() time.Time
	log      *slog.Logger
}

func NewMessageService(store storage.Store, notifier Notifier, cfg MessageConfig, log *slog.Logger) *MessageService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &MessageService{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With("component", "message-service"),
	}
}

// CreateMessage stores content in channelName on behalf of author and, once
// committed, announces it to every live session.
func (s *MessageService) CreateMessage(ctx context.Context, content, channelName string, author models.User) (models.Message, error) {
	if s.cfg.MaxContentLength > 0 && utf8.RuneCountInString(content) > s.cfg.MaxContentLength {
		return models.Message{}, apperrors.InvalidArg(
			fmt.Sprintf("message is too long (max %d characters)", s.cfg.MaxContentLength))
	}
	channel, err := s.channel(ctx, channelName)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := s.store.SaveMessage(ctx, models.Message{
		Content:   content,
		Time:      s.now(),
		UserID:    author.ID,
		ChannelID: channel.ID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Message{}, apperrors.Wrap(apperrors.CodeNotFound, "author or channel not found", err)
		}
		s.log.Error("Failed to save message", "channel", channelName, "user", author.Username, "error", err)
		return models.Message{}, apperrors.Internal("failed to save message", err)
	}

	s.log.Debug("Message saved", "id", msg.ID, "channel", channel.Name, "user", author.Username)
	s.notifier.AnnounceMessage(
		author.Username,
		ProfilePicturePath(s.cfg.StaticRoot, author.ProfilePicture),
		PrettyTime(msg.Time),
		channel.Name,
		msg.Content,
	)
	return msg, nil
}

// GetMessages returns the page of history that ends right before counter,
// counter being how many messages of the channel the client already holds.
// The window is [max(c-PageSize, 0), c) with c = min(counter, count).
func (s *MessageService) GetMessages(ctx context.Context, channelName string, counter int) ([]models.MessageView, error) {
	if counter < 0 {
		return nil, apperrors.InvalidArg("counter must not be negative")
	}
	channel, err := s.channel(ctx, channelName)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountMessages(ctx, channel.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to count messages", err)
	}

	end := min(counter, total)
	start := max(end-s.cfg.PageSize, 0)
	if end == start {
		return []models.MessageView{}, nil
	}

	messages, err := s.store.ListMessages(ctx, channel.ID, start, end-start)
	if err != nil {
		return nil, apperrors.Internal("failed to load messages", err)
	}
	return lo.Map(messages, func(m models.AuthoredMessage, _ int) models.MessageView {
		return models.MessageView{
			UserName:    m.Author.Username,
			UserPicture: ProfilePicturePath(s.cfg.StaticRoot, m.Author.ProfilePicture),
			Content:     m.Content,
			Time:        PrettyTime(m.Time),
		}
	}), nil
}

// InitialCounter is the number of messages currently stored in the channel.
func (s *MessageService) InitialCounter(ctx context.Context, channelName string) (int, error) {
	channel, err := s.channel(ctx, channelName)
	if err != nil {
		return 0, err
	}
	n, err := s.store.CountMessages(ctx, channel.ID)
	if err != nil {
		return 0, apperrors.Internal("failed to count messages", err)
	}
	return n, nil
}

func (s *MessageService) channel(ctx context.Context, name string) (models.Channel, error) {
	channel, err := s.store.GetChannelByName(ctx, name)
	switch {
	case err == nil:
		return channel, nil
	case errors.Is(err, storage.ErrNotFound):
		return models.Channel{}, apperrors.NotFound(fmt.Sprintf("channel %q not found", name))
	default:
		return models.Channel{}, apperrors.Internal("failed to look up channel", err)
	}
}
