//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pairchat/domain/chat"
	apperr "pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IConversationRepository interface {
	// CreateConversation atomically stores the conversation, its pair index
	// and both membership entries. The pair index is the uniqueness guarantee.
	CreateConversation(pair chat.Pair, at time.Time) (chat.Conversation, error)
	GetConversation(id chat.ConversationID) (chat.Conversation, error)
	FindConversationByParticipantPair(pair chat.Pair) (chat.Conversation, error)
	FindConversationsForUser(userID chat.UserID) ([]chat.Conversation, error)
	// DeleteConversation removes the conversation and cascades to its messages.
	DeleteConversation(id chat.ConversationID) error
}

type ConversationRepository struct {
	store *Store
	log   *slog.Logger
}

func NewConversationRepository(store *Store, log *slog.Logger) IConversationRepository {
	return &ConversationRepository{store: store, log: log}
}

type diskConversation struct {
	ID        uint64 `json:"id"`
	Low       uint64 `json:"low"`
	High      uint64 `json:"high"`
	CreatedAt int64  `json:"created_at"`
}

func (r *ConversationRepository) CreateConversation(pair chat.Pair, at time.Time) (chat.Conversation, error) {
	if !pair.Distinct() {
		return chat.Conversation{}, apperr.ErrInvalidParticipants
	}
	id, err := next(r.store.conversationSeq)
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("conversation id allocation failed: %w", err)
	}
	conversation := chat.Conversation{
		ID:           chat.ConversationID(id),
		Participants: pair,
		CreatedAt:    at.UTC(),
	}

	err = r.store.update(func(txn *badger.Txn) error {
		taken, err := exists(txn, pairKey(pair))
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrConversationAlreadyExists
		}
		for _, member := range pair.Members() {
			ok, err := exists(txn, userKey(member))
			if err != nil {
				return err
			}
			if !ok {
				return apperr.ErrInvalidParticipants
			}
			if err := txn.Set(memberKey(member, conversation.ID), nil); err != nil {
				return err
			}
		}
		if err := txn.Set(pairKey(pair), []byte(conversation.ID.String())); err != nil {
			return err
		}
		return setJSON(txn, conversationKey(conversation.ID), fromConversation(conversation))
	})
	if err != nil {
		return chat.Conversation{}, err
	}

	r.log.Debug("Conversation created", "conversation_id", conversation.ID, "pair", pair.String())
	return conversation, nil
}

func (r *ConversationRepository) GetConversation(id chat.ConversationID) (chat.Conversation, error) {
	var conversation chat.Conversation
	err := r.store.db.View(func(txn *badger.Txn) error {
		var err error
		conversation, err = getConversation(txn, id)
		return err
	})
	return conversation, err
}

func (r *ConversationRepository) FindConversationByParticipantPair(pair chat.Pair) (chat.Conversation, error) {
	var conversation chat.Conversation
	err := r.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(pair))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		var id uint64
		err = item.Value(func(val []byte) error {
			id, err = strconv.ParseUint(string(val), 10, 64)
			return err
		})
		if err != nil {
			return err
		}
		conversation, err = getConversation(txn, chat.ConversationID(id))
		return err
	})
	return conversation, err
}

// FindConversationsForUser scans the membership index of a user.
// Conversations come back ordered by id.
func (r *ConversationRepository) FindConversationsForUser(userID chat.UserID) ([]chat.Conversation, error) {
	var conversations []chat.Conversation
	prefix := memberPrefix(userID)
	err := r.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []chat.ConversationID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := string(it.Item().Key()[len(prefix):])
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupted membership key %q: %w", it.Item().Key(), err)
			}
			ids = append(ids, chat.ConversationID(id))
		}

		for _, id := range ids {
			conversation, err := getConversation(txn, id)
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// DeleteConversation first removes the conversation record and its indexes,
// which makes concurrent message writes fail, then sweeps the messages.
func (r *ConversationRepository) DeleteConversation(id chat.ConversationID) error {
	err := r.store.update(func(txn *badger.Txn) error {
		conversation, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		for _, member := range conversation.Participants.Members() {
			if err := txn.Delete(memberKey(member, id)); err != nil {
				return err
			}
		}
		if err := txn.Delete(pairKey(conversation.Participants)); err != nil {
			return err
		}
		return txn.Delete(conversationKey(id))
	})
	if err != nil {
		return err
	}

	removed, err := r.sweepMessages(id)
	if err != nil {
		return fmt.Errorf("cascade delete of conversation %d: %w", id, err)
	}
	r.log.Debug("Conversation deleted", "conversation_id", id, "messages", removed)
	return nil
}

func (r *ConversationRepository) sweepMessages(id chat.ConversationID) (int, error) {
	var keys [][]byte
	var ids []chat.MessageID
	prefix := messagePrefix(id)
	err := r.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			mid, err := messageIDFromKey(key)
			if err != nil {
				return err
			}
			keys = append(keys, key)
			ids = append(ids, mid)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := r.store.db.NewWriteBatch()
	for i, key := range keys {
		if err := wb.Delete(key); err != nil {
			wb.Cancel()
			return 0, err
		}
		if err := wb.Delete(messageRefKey(ids[i])); err != nil {
			wb.Cancel()
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func getConversation(txn *badger.Txn, id chat.ConversationID) (chat.Conversation, error) {
	var dc diskConversation
	err := getJSON(txn, conversationKey(id), &dc)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return chat.Conversation{}, apperr.ErrConversationNotFound
	}
	if err != nil {
		return chat.Conversation{}, err
	}
	return toConversation(dc), nil
}

func fromConversation(c chat.Conversation) diskConversation {
	return diskConversation{
		ID:        uint64(c.ID),
		Low:       uint64(c.Participants.Low),
		High:      uint64(c.Participants.High),
		CreatedAt: toUnix(c.CreatedAt),
	}
}

func toConversation(dc diskConversation) chat.Conversation {
	return chat.Conversation{
		ID:           chat.ConversationID(dc.ID),
		Participants: chat.NewPair(chat.UserID(dc.Low), chat.UserID(dc.High)),
		CreatedAt:    fromUnix(dc.CreatedAt),
	}
}
