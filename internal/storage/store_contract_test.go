package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Agora/internal/models"
)

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("channel names are unique", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		s := newStore(t)
		name := uniqueName("general")

		created, err := s.CreateChannel(ctx, name)
		req.NoError(err)
		req.NotZero(created.ID)

		_, err = s.CreateChannel(ctx, name)
		req.ErrorIs(err, ErrDuplicate)

		found, err := s.GetChannelByName(ctx, name)
		req.NoError(err)
		req.Equal(created, found)
	})

	t.Run("channel lookup is case sensitive", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		s := newStore(t)
		name := uniqueName("Random")

		_, err := s.CreateChannel(ctx, name)
		req.NoError(err)

		_, err = s.GetChannelByName(ctx, "r"+name[1:])
		req.ErrorIs(err, ErrNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := newStore(t).GetUserByUsername(context.Background(), uniqueName("ghost"))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("messages are listed in id order with their author", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		s := newStore(t)

		alice, err := s.CreateUser(ctx, uniqueName("alice"), "alice.png")
		req.NoError(err)
		channel, err := s.CreateChannel(ctx, uniqueName("history"))
		req.NoError(err)

		at := time.Date(2020, 1, 1, 10, 30, 15, 0, time.UTC)
		var ids []int64
		for i := 0; i < 5; i++ {
			saved, err := s.SaveMessage(ctx, models.Message{
				Content:   fmt.Sprintf("m%d", i),
				Time:      at.Add(time.Duration(i) * time.Second),
				UserID:    alice.ID,
				ChannelID: channel.ID,
			})
			req.NoError(err)
			ids = append(ids, saved.ID)
		}
		req.IsIncreasing(ids)

		count, err := s.CountMessages(ctx, channel.ID)
		req.NoError(err)
		req.Equal(5, count)

		page, err := s.ListMessages(ctx, channel.ID, 1, 3)
		req.NoError(err)
		req.Len(page, 3)
		req.Equal("m1", page[0].Content)
		req.Equal("m3", page[2].Content)
		req.Equal(alice.Username, page[0].Author.Username)
		req.Equal("alice.png", page[0].Author.ProfilePicture)
		req.True(at.Add(time.Second).Equal(page[0].Time))

		empty, err := s.ListMessages(ctx, channel.ID, 10, 20)
		req.NoError(err)
		req.Empty(empty)
	})

	t.Run("message needs an existing channel", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()
		s := newStore(t)

		bob, err := s.CreateUser(ctx, uniqueName("bob"), "bob.png")
		req.NoError(err)

		_, err = s.SaveMessage(ctx, models.Message{Content: "lost", Time: time.Now().UTC(), UserID: bob.ID, ChannelID: 987654321})
		req.ErrorIs(err, ErrNotFound)
	})
}

func uniqueName(base string) string {
	return fmt.Sprintf("%s-%d", base, time.Now().UnixNano())
}
