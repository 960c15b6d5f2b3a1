package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"Agora/internal/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              BIGSERIAL PRIMARY KEY,
	username        TEXT NOT NULL UNIQUE,
	profile_picture TEXT NOT NULL DEFAULT 'default.png'
);
CREATE TABLE IF NOT EXISTS channels (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS messages (
	id         BIGSERIAL PRIMARY KEY,
	content    TEXT NOT NULL,
	time       TIMESTAMP NOT NULL,
	user_id    BIGINT NOT NULL REFERENCES users (id),
	channel_id BIGINT NOT NULL REFERENCES channels (id)
);
CREATE INDEX IF NOT EXISTS messages_channel_id_id_idx ON messages (channel_id, id);
`

// Storage is the PostgreSQL backed Store.
type Storage struct {
	db *sql.DB
}

func NewStorage(connStr string) (*Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) CreateUser(ctx context.Context, username, profilePicture string) (models.User, error) {
	user := models.User{Username: username, ProfilePicture: profilePicture}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			"INSERT INTO users (username, profile_picture) VALUES ($1, $2) RETURNING id",
			username, profilePicture,
		).Scan(&user.ID)
	})
	if err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, profile_picture FROM users WHERE username = $1 LIMIT 1", username,
	).Scan(&u.ID, &u.Username, &u.ProfilePicture)
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

func (s *Storage) CreateChannel(ctx context.Context, name string) (models.Channel, error) {
	channel := models.Channel{Name: name}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			"INSERT INTO channels (name) VALUES ($1) RETURNING id", name,
		).Scan(&channel.ID)
	})
	if err != nil {
		return models.Channel{}, translate(err)
	}
	return channel, nil
}

func (s *Storage) GetChannelByName(ctx context.Context, name string) (models.Channel, error) {
	var c models.Channel
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM channels WHERE name = $1 ORDER BY id LIMIT 1", name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return models.Channel{}, translate(err)
	}
	return c, nil
}

func (s *Storage) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM channels ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var c models.Channel
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func (s *Storage) SaveMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			"INSERT INTO messages (content, time, user_id, channel_id) VALUES ($1, $2, $3, $4) RETURNING id",
			msg.Content, msg.Time, msg.UserID, msg.ChannelID,
		).Scan(&msg.ID)
	})
	if err != nil {
		return models.Message{}, translate(err)
	}
	return msg, nil
}

func (s *Storage) CountMessages(ctx context.Context, channelID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE channel_id = $1", channelID,
	).Scan(&n)
	return n, err
}

func (s *Storage) ListMessages(ctx context.Context, channelID int64, offset, limit int) ([]models.AuthoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.content, m.time, m.user_id, m.channel_id, u.username, u.profile_picture
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.channel_id = $1
		ORDER BY m.id ASC
		OFFSET $2 LIMIT $3`,
		channelID, offset, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.AuthoredMessage
	for rows.Next() {
		var m models.AuthoredMessage
		if err := rows.Scan(&m.ID, &m.Content, &m.Time, &m.UserID, &m.ChannelID,
			&m.Author.Username, &m.Author.ProfilePicture); err != nil {
			return nil, err
		}
		m.Time = m.Time.UTC()
		m.Author.ID = m.UserID
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}
