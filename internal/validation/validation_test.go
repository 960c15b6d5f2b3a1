package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"Agora/internal/mocks"
	"Agora/internal/models"
	"Agora/internal/storage"
)

func TestIsValidChannelName(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"general", true},
		{"Dev Team_2-b", true},
		{"a", true},
		{"0", true},
		{"-_-", true},
		{"", false},
		{" x", false},
		{"x ", false},
		{" ", false},
		{"x!", false},
		{"café", false},
		{"tab\there", false},
		{"new\nline", false},
		{"a/b", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.valid, IsValidChannelName(tc.name))
		})
	}
}

func TestIsValidChannelName_InnerSpacesAllowed(t *testing.T) {
	require.True(t, IsValidChannelName("two  spaces"))
}

func TestChannelAlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()

	t.Run("should report an existing channel", func(t *testing.T) {
		store.EXPECT().GetChannelByName(ctx, "general").Return(models.Channel{ID: 1, Name: "general"}, nil)
		exists, err := ChannelAlreadyExists(ctx, store, "general")
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("should report a missing channel", func(t *testing.T) {
		store.EXPECT().GetChannelByName(ctx, "General").Return(models.Channel{}, storage.ErrNotFound)
		exists, err := ChannelAlreadyExists(ctx, store, "General")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("should surface store failures", func(t *testing.T) {
		boom := errors.New("connection reset")
		store.EXPECT().GetChannelByName(ctx, "general").Return(models.Channel{}, boom)
		_, err := ChannelAlreadyExists(ctx, store, "general")
		require.ErrorIs(t, err, boom)
	})
}

func TestChannelNameTag(t *testing.T) {
	type form struct {
		ChannelName string `validate:"required,channelname"`
	}
	v := New()

	require.NoError(t, v.Struct(form{ChannelName: "general"}))
	require.Error(t, v.Struct(form{ChannelName: "bad name!"}))
	require.Error(t, v.Struct(form{ChannelName: ""}))
}
