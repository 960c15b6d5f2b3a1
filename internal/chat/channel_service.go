package chat

import (
	"context"
	"errors"
	"log/slog"

	"Agora/internal/apperrors"
	"Agora/internal/models"
	"Agora/internal/storage"
	"Agora/internal/validation"
)

var (
	ErrInvalidChannelName = apperrors.ValidationFailed("channel name may only contain letters, digits, spaces, hyphens and underscores, and may not start or end with a space")
	ErrChannelTaken       = apperrors.ValidationFailed("channel already exists")
)

type ChannelService struct {
	store    storage.Store
	notifier Notifier
	log      *slog.Logger
}

func NewChannelService(store storage.Store, notifier Notifier, log *slog.Logger) *ChannelService {
	return &ChannelService{
		store:    store,
		notifier: notifier,
		log:      log.With("component", "channel-service"),
	}
}

// CreateChannel validates name again even if the caller already did, stores
// the channel and announces it once the write is committed.
func (s *ChannelService) CreateChannel(ctx context.Context, name string) (models.Channel, error) {
	if !validation.IsValidChannelName(name) {
		return models.Channel{}, ErrInvalidChannelName
	}
	exists, err := s.ChannelAlreadyExists(ctx, name)
	if err != nil {
		return models.Channel{}, err
	}
	if exists {
		return models.Channel{}, ErrChannelTaken
	}

	channel, err := s.store.CreateChannel(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// Lost a race against another writer between the check and the insert.
			return models.Channel{}, apperrors.Wrap(apperrors.CodeAlreadyExists, "channel already exists", err)
		}
		s.log.Error("Failed to save channel", "channel", name, "error", err)
		return models.Channel{}, apperrors.Internal("failed to save channel", err)
	}

	s.log.Info("Channel created", "channel", channel.Name, "id", channel.ID)
	s.notifier.AnnounceChannel(channel.Name)
	return channel, nil
}

func (s *ChannelService) ChannelAlreadyExists(ctx context.Context, name string) (bool, error) {
	exists, err := validation.ChannelAlreadyExists(ctx, s.store, name)
	if err != nil {
		return false, apperrors.Internal("failed to look up channel", err)
	}
	return exists, nil
}

func (s *ChannelService) ListChannels(ctx context.Context) ([]models.Channel, error) {
	channels, err := s.store.ListChannels(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list channels", err)
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	return channels, nil
}
