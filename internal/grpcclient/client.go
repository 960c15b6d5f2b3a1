package grpcclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"Agora/internal/apperrors"
	"Agora/internal/chatservice"
	"Agora/internal/models"
)

const DefaultTimeout = 3 * time.Second

// ChatClient wraps a grpc connection to ChatService.
type ChatClient struct {
	conn    *grpc.ClientConn
	health  healthpb.HealthClient
	timeout time.Duration
	log     *slog.Logger
}

// NewChatClient connects lazily to address. Extra options are appended to
// the insecure transport credentials.
func NewChatClient(address string, log *slog.Logger, opts ...grpc.DialOption) (*ChatClient, error) {
	log = log.With("component", "grpc-client")
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		log.Error("Failed to connect to chat service", "address", address, "error", err)
		return nil, fmt.Errorf("failed to connect to chat service: %w", err)
	}
	log.Debug("Chat service client ready", "address", address)
	return &ChatClient{
		conn:    conn,
		health:  healthpb.NewHealthClient(conn),
		timeout: DefaultTimeout,
		log:     log,
	}, nil
}

func (c *ChatClient) CreateChannel(ctx context.Context, name string) (string, error) {
	resp := &structpb.Struct{}
	if err := c.invoke(ctx, chatservice.MethodCreateChannel, map[string]any{"channelName": name}, resp); err != nil {
		return "", err
	}
	return resp.GetFields()["channelName"].GetStringValue(), nil
}

func (c *ChatClient) ListChannels(ctx context.Context) ([]string, error) {
	resp := &structpb.Struct{}
	if err := c.call(ctx, chatservice.MethodListChannels, &emptypb.Empty{}, resp); err != nil {
		return nil, err
	}
	values := resp.GetFields()["channels"].GetListValue().GetValues()
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.GetStringValue())
	}
	return names, nil
}

func (c *ChatClient) GetMessages(ctx context.Context, channel string, counter int) ([]models.MessageView, error) {
	resp := &structpb.Struct{}
	req := map[string]any{"channelName": channel, "counter": counter}
	if err := c.invoke(ctx, chatservice.MethodGetMessages, req, resp); err != nil {
		return nil, err
	}
	values := resp.GetFields()["messages"].GetListValue().GetValues()
	views := make([]models.MessageView, 0, len(values))
	for _, v := range values {
		fields := v.GetStructValue().GetFields()
		views = append(views, models.MessageView{
			UserName:    fields["userName"].GetStringValue(),
			UserPicture: fields["userPicture"].GetStringValue(),
			Content:     fields["content"].GetStringValue(),
			Time:        fields["time"].GetStringValue(),
		})
	}
	return views, nil
}

// AddMessage posts content to channel on behalf of username.
func (c *ChatClient) AddMessage(ctx context.Context, username, channel, content string) error {
	ctx = metadata.AppendToOutgoingContext(ctx, chatservice.UsernameKey, username)
	req := map[string]any{"channel": channel, "messageContent": content}
	return c.invoke(ctx, chatservice.MethodAddMessage, req, &emptypb.Empty{})
}

func (c *ChatClient) InitialCounter(ctx context.Context, channel string) (int, error) {
	resp := &structpb.Struct{}
	if err := c.invoke(ctx, chatservice.MethodInitialCounter, map[string]any{"channelName": channel}, resp); err != nil {
		return 0, err
	}
	return int(resp.GetFields()["counter"].GetNumberValue()), nil
}

// Health asks the standard health service about ChatService.
func (c *ChatClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: chatservice.ServiceName})
	if err != nil {
		c.log.Warn("Chat service health check failed", "error", err)
		return apperrors.FromGRPC(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("chat service is %s", resp.GetStatus())
	}
	return nil
}

func (c *ChatClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *ChatClient) invoke(ctx context.Context, method string, fields map[string]any, resp any) error {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.call(ctx, method, req, resp)
}

func (c *ChatClient) call(ctx context.Context, method string, req, resp any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		c.log.Debug("gRPC call failed", "method", method, "duration", time.Since(start), "error", err)
		return apperrors.FromGRPC(err)
	}
	c.log.Debug("gRPC call completed", "method", method, "duration", time.Since(start))
	return nil
}
