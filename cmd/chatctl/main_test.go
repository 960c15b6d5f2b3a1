package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"Agora/internal/models"
)

type fakeClient struct {
	channels []string
	counter  int
	views    []models.MessageView
	posted   []string
	gotCount int
}

func (f *fakeClient) Health(context.Context) error { return nil }

func (f *fakeClient) ListChannels(context.Context) ([]string, error) { return f.channels, nil }

func (f *fakeClient) CreateChannel(_ context.Context, name string) (string, error) {
	f.channels = append(f.channels, name)
	return name, nil
}

func (f *fakeClient) InitialCounter(context.Context, string) (int, error) { return f.counter, nil }

func (f *fakeClient) GetMessages(_ context.Context, _ string, counter int) ([]models.MessageView, error) {
	f.gotCount = counter
	return f.views, nil
}

func (f *fakeClient) AddMessage(_ context.Context, username, channel, content string) error {
	f.posted = append(f.posted, username+"@"+channel+": "+content)
	return nil
}

func TestParseArgs(t *testing.T) {
	req := require.New(t)
	opts, err := parseArgs([]string{"-addr", "chat:9090", "-user", "alice", "post", "general", "hi there"})
	req.NoError(err)
	req.Equal("chat:9090", opts.addr)
	req.Equal("alice", opts.user)
	req.Equal("post", opts.command)
	req.Equal([]string{"general", "hi there"}, opts.args)

	_, err = parseArgs(nil)
	req.ErrorIs(err, errUsage)
	_, err = parseArgs([]string{"-nope"})
	req.ErrorIs(err, errUsage)
}

func TestExecute_History(t *testing.T) {
	req := require.New(t)
	client := &fakeClient{
		counter: 42,
		views: []models.MessageView{
			{UserName: "alice", Content: "hello", Time: "2024-05-01 09:30"},
			{UserName: "bob", Content: "hi alice", Time: "2024-05-01 09:31"},
		},
	}
	var out bytes.Buffer

	req.NoError(execute(context.Background(), client, options{command: "history", args: []string{"general"}}, &out))
	req.Equal(42, client.gotCount)
	req.Contains(out.String(), "hi alice")
	req.Contains(out.String(), "2024-05-01 09:30")

	req.NoError(execute(context.Background(), client, options{command: "history", args: []string{"general", "7"}}, &out))
	req.Equal(7, client.gotCount)

	err := execute(context.Background(), client, options{command: "history", args: []string{"general", "x"}}, &out)
	req.ErrorIs(err, errUsage)
}

func TestExecute_Commands(t *testing.T) {
	req := require.New(t)
	client := &fakeClient{}
	var out bytes.Buffer
	ctx := context.Background()

	req.NoError(execute(ctx, client, options{command: "create-channel", args: []string{"general"}}, &out))
	req.NoError(execute(ctx, client, options{command: "channels"}, &out))
	req.Contains(out.String(), "general")

	req.NoError(execute(ctx, client, options{command: "post", user: "alice", args: []string{"general", "hi"}}, &out))
	req.Equal([]string{"alice@general: hi"}, client.posted)

	err := execute(ctx, client, options{command: "post", args: []string{"general", "hi"}}, &out)
	req.True(errors.Is(err, errUsage))
	err = execute(ctx, client, options{command: "dance"}, &out)
	req.ErrorIs(err, errUsage)
}
