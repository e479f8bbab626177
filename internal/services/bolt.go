package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
	bolt "go.etcd.io/bbolt"
)

// BoltDB implements the Store interface using a BoltDB backend for persistent storage of
// login sessions, their assistant conversations, and per-user preferences. Sessions and
// preferences live in fixed buckets; each session owns a conversation bucket so clearing
// one conversation never touches another.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB creates a new BoltDB instance with the specified file path. It initializes the
// database with required buckets and returns an error if the database cannot be opened or
// initialized. The database file is created with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte("sessions")); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte("preferences"))
		return err
	})

	return BoltDB{db: db}, err
}

// Close releases the underlying database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}

func conversationBucketName(sessionID string) []byte {
	return []byte(fmt.Sprintf("conversation-%s", sessionID))
}

// Session retrieves the stored session for the given ID. A session that does not exist is
// reported as a zero value, not an error.
func (b BoltDB) Session(_ context.Context, id string) (nexus.Session, error) {
	var sess nexus.Session
	err := b.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("sessions"))
		if b == nil {
			return nil
		}

		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &sess); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nexus.Session{}, err
	}
	return sess, nil
}

// PutSession stores the session under the given ID and creates its conversation bucket.
func (b BoltDB) PutSession(_ context.Context, id string, sess nexus.Session) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("sessions"))
		if b == nil {
			return nil
		}

		if _, err := tx.CreateBucketIfNotExists(conversationBucketName(id)); err != nil {
			return fmt.Errorf("failed to create conversation bucket: %w", err)
		}

		v, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		return b.Put([]byte(id), v)
	})
}

// DeleteSession removes the session and its conversation. Deleting an unknown session is
// silently ignored.
func (b BoltDB) DeleteSession(_ context.Context, id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(conversationBucketName(id)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to delete conversation bucket: %w", err)
		}

		b := tx.Bucket([]byte("sessions"))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(id))
	})
}

// Messages retrieves the session's conversation in the order the messages were stored.
func (b BoltDB) Messages(_ context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	err := b.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(conversationBucketName(sessionID))
		if b == nil {
			return nil
		}

		return b.ForEach(func(_, v []byte) error {
			var message models.Message
			if err := json.Unmarshal(v, &message); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			messages = append(messages, message)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// AddMessage appends a message to the session's conversation. It generates a unique ID for
// the message by combining a zero-padded sequence number with the message's original ID, so
// key order and append order agree, and returns the new ID or an error if the operation
// fails.
func (b BoltDB) AddMessage(_ context.Context, sessionID string, message models.Message) (string, error) {
	var newID string
	err := b.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(conversationBucketName(sessionID))
		if err != nil {
			return fmt.Errorf("failed to create conversation bucket: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		newID = fmt.Sprintf("%020d-%s", seq, message.ID)
		message.ID = newID

		v, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		return b.Put([]byte(newID), v)
	})

	return newID, err
}

// UpdateMessage modifies an existing message in the session's conversation. If the message
// doesn't exist, the operation is silently ignored. Returns an error if the marshaling or
// database operation fails.
func (b BoltDB) UpdateMessage(_ context.Context, sessionID string, message models.Message) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(conversationBucketName(sessionID))
		if b == nil {
			return nil
		}

		if b.Get([]byte(message.ID)) == nil {
			return nil
		}

		v, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		return b.Put([]byte(message.ID), v)
	})
}

// ClearMessages drops the session's conversation while keeping the session itself.
func (b BoltDB) ClearMessages(_ context.Context, sessionID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		name := conversationBucketName(sessionID)
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to delete conversation bucket: %w", err)
		}
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
}

// Preferences retrieves the user's console preferences, falling back to defaults for users
// who never saved any.
func (b BoltDB) Preferences(_ context.Context, userID string) (models.Preferences, error) {
	var prefs models.Preferences
	err := b.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("preferences"))
		if b == nil {
			return nil
		}

		v := b.Get([]byte(userID))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &prefs); err != nil {
			return fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Preferences{}, err
	}
	return prefs, nil
}

// PutPreferences stores the user's console preferences.
func (b BoltDB) PutPreferences(_ context.Context, userID string, prefs models.Preferences) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("preferences"))
		if b == nil {
			return nil
		}

		v, err := json.Marshal(prefs)
		if err != nil {
			return fmt.Errorf("failed to marshal preferences: %w", err)
		}

		return b.Put([]byte(userID), v)
	})
}
