package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBadgerStore(t *testing.T) Store {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStore(t *testing.T) {
	runStoreContract(t, newTestBadgerStore)
}

func TestBadgerStore_ConcurrentChannelCreation(t *testing.T) {
	req := require.New(t)
	s := newTestBadgerStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateChannel(ctx, "race")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		req.ErrorIs(err, ErrDuplicate)
	}
	req.Equal(1, created)

	channels, err := s.ListChannels(ctx)
	req.NoError(err)
	req.Len(channels, 1)
}

func TestBadgerStore_ReopenKeepsData(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewBadgerStore(dir)
	req.NoError(err)
	first, err := s.CreateChannel(ctx, "general")
	req.NoError(err)
	req.NoError(s.Close())

	s, err = NewBadgerStore(dir)
	req.NoError(err)
	defer s.Close()

	found, err := s.GetChannelByName(ctx, "general")
	req.NoError(err)
	req.Equal(first, found)

	second, err := s.CreateChannel(ctx, "random")
	req.NoError(err)
	req.Greater(second.ID, first.ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("sqlite", "")
	require.ErrorContains(t, err, "unknown storage driver")
}
