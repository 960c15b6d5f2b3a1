package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"Agora/internal/models"
)

const sequenceBandwidth = 100

// BadgerStore is the embedded Store. Keys are laid out so that a prefix scan
// over "msg:{channel}:" yields the channel's messages in id order:
//
//	user:id:{id}         -> models.User
//	user:name:{username} -> id
//	channel:id:{id}      -> models.Channel
//	channel:name:{name}  -> id
//	msg:{channel}:{id}   -> models.Message
//
// Ids are zero padded to 19 digits so that lexicographical order is numeric order.
type BadgerStore struct {
	db       *badger.DB
	users    *badger.Sequence
	channels *badger.Sequence
	messages *badger.Sequence
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return newBadgerStore(db)
}

func newBadgerStore(db *badger.DB) (*BadgerStore, error) {
	s := &BadgerStore{db: db}
	var err error
	if s.users, err = db.GetSequence([]byte("seq:user"), sequenceBandwidth); err != nil {
		return nil, err
	}
	if s.channels, err = db.GetSequence([]byte("seq:channel"), sequenceBandwidth); err != nil {
		return nil, err
	}
	if s.messages, err = db.GetSequence([]byte("seq:message"), sequenceBandwidth); err != nil {
		return nil, err
	}
	return s, nil
}

func userKey(id int64) []byte { return []byte(fmt.Sprintf("user:id:%019d", id)) }
func userNameKey(name string) []byte { return []byte("user:name:" + name) }
func channelKey(id int64) []byte { return []byte(fmt.Sprintf("channel:id:%019d", id)) }
func channelNameKey(name string) []byte { return []byte("channel:name:" + name) }
func messagePrefix(channelID int64) []byte {
	return []byte(fmt.Sprintf("msg:%019d:", channelID))
}
func messageKey(channelID, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%019d:%019d", channelID, id))
}

// nextID turns badger's zero based sequence into ids starting at 1.
func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return int64(n) + 1, nil
}

func (s *BadgerStore) CreateUser(ctx context.Context, username, profilePicture string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	id, err := nextID(s.users)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{ID: id, Username: username, ProfilePicture: profilePicture}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := claimName(txn, userNameKey(username), id); err != nil {
			return err
		}
		return setJSON(txn, userKey(id), user)
	})
	if err != nil {
		return models.User{}, translateBadger(err)
	}
	return user, nil
}

func (s *BadgerStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := lookupName(txn, userNameKey(username))
		if err != nil {
			return err
		}
		return getJSON(txn, userKey(id), &user)
	})
	if err != nil {
		return models.User{}, translateBadger(err)
	}
	return user, nil
}

func (s *BadgerStore) CreateChannel(ctx context.Context, name string) (models.Channel, error) {
	if err := ctx.Err(); err != nil {
		return models.Channel{}, err
	}
	id, err := nextID(s.channels)
	if err != nil {
		return models.Channel{}, err
	}
	channel := models.Channel{ID: id, Name: name}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := claimName(txn, channelNameKey(name), id); err != nil {
			return err
		}
		return setJSON(txn, channelKey(id), channel)
	})
	if err != nil {
		return models.Channel{}, translateBadger(err)
	}
	return channel, nil
}

func (s *BadgerStore) GetChannelByName(ctx context.Context, name string) (models.Channel, error) {
	if err := ctx.Err(); err != nil {
		return models.Channel{}, err
	}
	var channel models.Channel
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := lookupName(txn, channelNameKey(name))
		if err != nil {
			return err
		}
		return getJSON(txn, channelKey(id), &channel)
	})
	if err != nil {
		return models.Channel{}, translateBadger(err)
	}
	return channel, nil
}

func (s *BadgerStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var channels []models.Channel
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("channel:id:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c models.Channel
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &c)
			}); err != nil {
				return err
			}
			channels = append(channels, c)
		}
		return nil
	})
	return channels, err
}

func (s *BadgerStore) SaveMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	id, err := nextID(s.messages)
	if err != nil {
		return models.Message{}, err
	}
	msg.ID = id
	err = s.db.Update(func(txn *badger.Txn) error {
		// Both references must exist, like the foreign keys of the sql schema.
		if _, err := txn.Get(channelKey(msg.ChannelID)); err != nil {
			return err
		}
		if _, err := txn.Get(userKey(msg.UserID)); err != nil {
			return err
		}
		return setJSON(txn, messageKey(msg.ChannelID, msg.ID), msg)
	})
	if err != nil {
		return models.Message{}, translateBadger(err)
	}
	return msg, nil
}

func (s *BadgerStore) CountMessages(ctx context.Context, channelID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(channelID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (s *BadgerStore) ListMessages(ctx context.Context, channelID int64, offset, limit int) ([]models.AuthoredMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var messages []models.AuthoredMessage
	err := s.db.View(func(txn *badger.Txn) error {
		authors := make(map[int64]models.User)
		prefix := messagePrefix(channelID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(messages) < limit; it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			var m models.AuthoredMessage
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &m.Message)
			}); err != nil {
				return err
			}
			author, ok := authors[m.UserID]
			if !ok {
				if err := getJSON(txn, userKey(m.UserID), &author); err != nil {
					return err
				}
				authors[m.UserID] = author
			}
			m.Author = author
			messages = append(messages, m)
		}
		return nil
	})
	if err != nil {
		return nil, translateBadger(err)
	}
	return messages, nil
}

func (s *BadgerStore) Close() error {
	var errs []error
	for _, seq := range []*badger.Sequence{s.users, s.channels, s.messages} {
		if seq != nil {
			errs = append(errs, seq.Release())
		}
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// claimName reserves a unique name inside txn. Two transactions claiming the
// same name concurrently conflict on commit.
func claimName(txn *badger.Txn, key []byte, id int64) error {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return ErrDuplicate
	case !errors.Is(err, badger.ErrKeyNotFound):
		return err
	}
	return txn.Set(key, []byte(strconv.FormatInt(id, 10)))
}

func lookupName(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if err != nil {
		return 0, err
	}
	var id int64
	err = item.Value(func(v []byte) error {
		id, err = strconv.ParseInt(string(v), 10, 64)
		return err
	})
	return id, err
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, bytes)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(b []byte) error {
		return json.Unmarshal(b, v)
	})
}

func translateBadger(err error) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: concurrent write", ErrDuplicate)
	}
	return err
}
