//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pairchat/domain/chat"
	apperr "pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	StoreMessage(conversationID chat.ConversationID, senderID chat.UserID, content string, at time.Time) (chat.Message, error)
	// GetMessages returns the messages of a conversation, oldest first.
	GetMessages(conversationID chat.ConversationID) ([]chat.Message, error)
	GetMessage(conversationID chat.ConversationID, messageID chat.MessageID) (chat.Message, error)
	DeleteMessage(conversationID chat.ConversationID, messageID chat.MessageID) error
}

type MessageRepository struct {
	store *Store
	log   *slog.Logger
}

func NewMessageRepository(store *Store, log *slog.Logger) IMessageRepository {
	return &MessageRepository{store: store, log: log}
}

type diskMessage struct {
	ID             uint64 `json:"id"`
	ConversationID uint64 `json:"conversation_id"`
	SenderID       uint64 `json:"sender_id"`
	Content        string `json:"content"`
	At             int64  `json:"at"`
}

// StoreMessage persists a message.
// The key is formatted as "msg:{conversation}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Keep two messages of the same nanosecond apart, ordered by id.
//
// A reference key "msgref:{id}" points back to it for direct lookups.
func (m *MessageRepository) StoreMessage(conversationID chat.ConversationID, senderID chat.UserID,
	content string, at time.Time) (chat.Message, error) {
	id, err := next(m.store.messageSeq)
	if err != nil {
		return chat.Message{}, fmt.Errorf("message id allocation failed: %w", err)
	}
	message := chat.Message{
		ID:             chat.MessageID(id),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Timestamp:      at.UTC(),
	}
	key := messageKey(conversationID, message.Timestamp, message.ID)

	err = m.store.update(func(txn *badger.Txn) error {
		// Reading the conversation key makes this transaction conflict with a concurrent delete.
		ok, err := exists(txn, conversationKey(conversationID))
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrConversationNotFound
		}
		if err := txn.Set(messageRefKey(message.ID), key); err != nil {
			return err
		}
		return setJSON(txn, key, fromMessage(message))
	})
	if err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

// GetMessages uses a prefix scan: thanks to the padded timestamp in the key,
// messages are naturally sorted by time.
func (m *MessageRepository) GetMessages(conversationID chat.ConversationID) ([]chat.Message, error) {
	var messages []chat.Message
	prefix := messagePrefix(conversationID)
	err := m.store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var dm diskMessage
				if err := json.Unmarshal(val, &dm); err != nil {
					return err
				}
				messages = append(messages, toMessage(dm))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Debug("Messages fetched", "conversation_id", conversationID, "count", len(messages))
	return messages, nil
}

// GetMessage fails with ErrMessageNotFound when the message does not exist
// or belongs to another conversation.
func (m *MessageRepository) GetMessage(conversationID chat.ConversationID, messageID chat.MessageID) (chat.Message, error) {
	var message chat.Message
	err := m.store.db.View(func(txn *badger.Txn) error {
		_, dm, err := lookupMessage(txn, conversationID, messageID)
		message = toMessage(dm)
		return err
	})
	if err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

func (m *MessageRepository) DeleteMessage(conversationID chat.ConversationID, messageID chat.MessageID) error {
	err := m.store.update(func(txn *badger.Txn) error {
		key, _, err := lookupMessage(txn, conversationID, messageID)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(messageRefKey(messageID))
	})
	if err != nil {
		return err
	}
	m.log.Debug("Message deleted", "conversation_id", conversationID, "message_id", messageID)
	return nil
}

func lookupMessage(txn *badger.Txn, conversationID chat.ConversationID, messageID chat.MessageID) ([]byte, diskMessage, error) {
	item, err := txn.Get(messageRefKey(messageID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, diskMessage{}, apperr.ErrMessageNotFound
	}
	if err != nil {
		return nil, diskMessage{}, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return nil, diskMessage{}, err
	}
	if !bytes.HasPrefix(key, messagePrefix(conversationID)) {
		return nil, diskMessage{}, apperr.ErrMessageNotFound
	}

	var dm diskMessage
	err = getJSON(txn, key, &dm)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, diskMessage{}, apperr.ErrMessageNotFound
	}
	if err != nil {
		return nil, diskMessage{}, err
	}
	return key, dm, nil
}

// messageIDFromKey extracts the trailing id of "msg:{conversation}:{ts}:{id}".
func messageIDFromKey(key []byte) (chat.MessageID, error) {
	i := bytes.LastIndexByte(key, ':')
	if i < 0 {
		return 0, fmt.Errorf("corrupted message key %q", key)
	}
	id, err := strconv.ParseUint(string(key[i+1:]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupted message key %q: %w", key, err)
	}
	return chat.MessageID(id), nil
}

func fromMessage(message chat.Message) diskMessage {
	return diskMessage{
		ID:             uint64(message.ID),
		ConversationID: uint64(message.ConversationID),
		SenderID:       uint64(message.SenderID),
		Content:        message.Content,
		At:             toUnix(message.Timestamp),
	}
}

func toMessage(dm diskMessage) chat.Message {
	return chat.Message{
		ID:             chat.MessageID(dm.ID),
		ConversationID: chat.ConversationID(dm.ConversationID),
		SenderID:       chat.UserID(dm.SenderID),
		Content:        dm.Content,
		Timestamp:      fromUnix(dm.At),
	}
}
