package chatservice

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"Agora/internal/apperrors"
	"Agora/internal/chat"
	"Agora/internal/models"
	"Agora/internal/storage"
)

// UsernameKey is the metadata key naming the current user.
const UsernameKey = "x-username"

type UserFinder interface {
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// ChatService exposes the channel and message services over gRPC.
type ChatService struct {
	channels *chat.ChannelService
	messages *chat.MessageService
	users    UserFinder
	log      *slog.Logger
}

func NewChatService(channels *chat.ChannelService, messages *chat.MessageService, users UserFinder, log *slog.Logger) *ChatService {
	return &ChatService{
		channels: channels,
		messages: messages,
		users:    users,
		log:      log.With("component", "chatservice"),
	}
}

// CreateChannel expects {"channelName": string} and answers with the same shape.
func (s *ChatService) CreateChannel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringField(req, "channelName")
	if err != nil {
		return nil, err
	}
	channel, err := s.channels.CreateChannel(ctx, name)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"channelName": channel.Name})
}

// ListChannels answers with {"channels": [string]} in creation order.
func (s *ChatService) ListChannels(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	channels, err := s.channels.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{
		"channels": lo.Map(channels, func(c models.Channel, _ int) any { return c.Name }),
	})
}

// GetMessages expects {"channelName": string, "counter": number}.
func (s *ChatService) GetMessages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringField(req, "channelName")
	if err != nil {
		return nil, err
	}
	counter, err := intField(req, "counter")
	if err != nil {
		return nil, err
	}
	views, err := s.messages.GetMessages(ctx, name, counter)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{
		"messages": lo.Map(views, func(v models.MessageView, _ int) any {
			return map[string]any{
				"userName":    v.UserName,
				"userPicture": v.UserPicture,
				"content":     v.Content,
				"time":        v.Time,
			}
		}),
	})
}

// AddMessage expects {"channel": string, "messageContent": string} and the
// author in the x-username metadata.
func (s *ChatService) AddMessage(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	content, err := stringField(req, "messageContent")
	if err != nil {
		return nil, err
	}
	channel, err := stringField(req, "channel")
	if err != nil {
		return nil, err
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.CreateMessage(ctx, content, channel, user); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

// InitialCounter expects {"channelName": string} and answers {"counter": number}.
func (s *ChatService) InitialCounter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringField(req, "channelName")
	if err != nil {
		return nil, err
	}
	counter, err := s.messages.InitialCounter(ctx, name)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"counter": counter})
}

func (s *ChatService) currentUser(ctx context.Context) (models.User, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(UsernameKey)
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return models.User{}, apperrors.Unauthenticated("missing " + UsernameKey + " metadata")
	}
	username := strings.TrimSpace(values[0])
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, apperrors.Unauthenticated("unknown user " + strconv.Quote(username))
		}
		s.log.Error("Failed to look up user", "username", username, "error", err)
		return models.User{}, apperrors.Internal("failed to look up user", err)
	}
	return user, nil
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", apperrors.InvalidArg("missing field: " + key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", apperrors.InvalidArg(key + " must be a string")
	}
	return s.StringValue, nil
}

func intField(req *structpb.Struct, key string) (int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, apperrors.InvalidArg("missing field: " + key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, apperrors.InvalidArg(key + " must be an integer")
	}
	return int(n.NumberValue), nil
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, apperrors.Internal("failed to encode response", err)
	}
	return st, nil
}
