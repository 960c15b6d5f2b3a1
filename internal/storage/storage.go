//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=../mocks/mock_store.go -package=mocks
package storage

import (
	"context"
	"errors"
	"fmt"

	"Agora/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store is the single shared mutable resource of the server. Every write
// is committed atomically; a failed write leaves nothing behind.
type Store interface {
	CreateUser(ctx context.Context, username, profilePicture string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	CreateChannel(ctx context.Context, name string) (models.Channel, error)
	// GetChannelByName is an exact, case-sensitive lookup.
	GetChannelByName(ctx context.Context, name string) (models.Channel, error)
	ListChannels(ctx context.Context) ([]models.Channel, error)

	SaveMessage(ctx context.Context, msg models.Message) (models.Message, error)
	CountMessages(ctx context.Context, channelID int64) (int, error)
	// ListMessages returns at most limit messages of the channel, ordered by
	// id ascending, skipping the first offset ones.
	ListMessages(ctx context.Context, channelID int64, offset, limit int) ([]models.AuthoredMessage, error)

	Close() error
}

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Open builds the store selected by driver. dsn is a connection string for
// postgres and a directory for badger.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres:
		return NewStorage(dsn)
	case DriverBadger:
		return NewBadgerStore(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
