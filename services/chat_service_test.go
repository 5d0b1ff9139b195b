package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"pairchat/domain/chat"
	"pairchat/errors"
	"pairchat/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	alice = chat.User{ID: 1, Username: "alice"}
	bob   = chat.User{ID: 2, Username: "bob"}
	carol = chat.User{ID: 3, Username: "carol"}
)

type chatMocks struct {
	users         *mocks.MockIUserRepository
	conversations *mocks.MockIConversationRepository
	messages      *mocks.MockIMessageRepository
	clock         *chat.FixedClock
	svc           *ChatService
}

func newChatMocks(t *testing.T) chatMocks {
	ctrl := gomock.NewController(t)
	m := chatMocks{
		users:         mocks.NewMockIUserRepository(ctrl),
		conversations: mocks.NewMockIConversationRepository(ctrl),
		messages:      mocks.NewMockIMessageRepository(ctrl),
		clock:         &chat.FixedClock{At: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)},
	}
	m.svc = NewChatService(slog.Default(), m.users, m.conversations, m.messages, m.clock)
	return m
}

func aliceBob() chat.Conversation {
	return chat.Conversation{ID: 10, Participants: chat.NewPair(alice.ID, bob.ID)}
}

func TestChatService_CreateConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a conversation between two valid users", func(t *testing.T) {
		req := require.New(t)
		m := newChatMocks(t)
		pair := chat.NewPair(alice.ID, bob.ID)

		m.users.EXPECT().GetUsersByIDs([]chat.UserID{alice.ID, bob.ID}).Return([]chat.User{alice, bob}, nil)
		m.conversations.EXPECT().FindConversationByParticipantPair(pair).Return(chat.Conversation{}, errors.ErrConversationNotFound)
		m.conversations.EXPECT().CreateConversation(pair, m.clock.At).
			Return(chat.Conversation{ID: 10, Participants: pair, CreatedAt: m.clock.At}, nil)

		view, err := m.svc.CreateConversation(ctx, chat.CreateConversationCommand{
			RequesterID:  alice.ID,
			Participants: []string{"1", "2"},
		})

		req.NoError(err)
		req.Equal(chat.ConversationID(10), view.ID)
		req.Equal([]chat.Participant{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, view.Participants)
		req.Equal(m.clock.At, view.CreatedAt)
	})

	t.Run("should fail when a conversation exists for the pair in either order", func(t *testing.T) {
		req := require.New(t)
		m := newChatMocks(t)
		pair := chat.NewPair(alice.ID, bob.ID)

		m.users.EXPECT().GetUsersByIDs([]chat.UserID{bob.ID, alice.ID}).Return([]chat.User{bob, alice}, nil)
		m.conversations.EXPECT().FindConversationByParticipantPair(pair).Return(aliceBob(), nil)
		m.conversations.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).Times(0)

		_, err := m.svc.CreateConversation(ctx, chat.CreateConversationCommand{
			RequesterID:  alice.ID,
			Participants: []string{"2", "1"},
		})
		req.ErrorIs(err, errors.ErrConversationAlreadyExists)
	})

	t.Run("should report the race lost against a concurrent creation", func(t *testing.T) {
		req := require.New(t)
		m := newChatMocks(t)
		pair := chat.NewPair(alice.ID, bob.ID)

		m.users.EXPECT().GetUsersByIDs(gomock.Any()).Return([]chat.User{alice, bob}, nil)
		m.conversations.EXPECT().FindConversationByParticipantPair(pair).Return(chat.Conversation{}, errors.ErrConversationNotFound)
		m.conversations.EXPECT().CreateConversation(pair, gomock.Any()).Return(chat.Conversation{}, errors.ErrConversationAlreadyExists)

		_, err := m.svc.CreateConversation(ctx, chat.CreateConversationCommand{
			RequesterID:  alice.ID,
			Participants: []string{"1", "2"},
		})
		req.ErrorIs(err, errors.ErrConversationAlreadyExists)
	})

	rejected := []struct {
		name         string
		participants []string
		wantErr      error
	}{
		{"no participant", nil, errors.ErrInvalidParticipantCount},
		{"one participant", []string{"1"}, errors.ErrInvalidParticipantCount},
		{"three participants", []string{"1", "2", "3"}, errors.ErrInvalidParticipantCount},
		{"three participants without requester", []string{"2", "3", "4"}, errors.ErrInvalidParticipantCount},
		{"requester missing", []string{"2", "3"}, errors.ErrNotAParticipant},
		{"requester missing with garbage ids", []string{"x", "y"}, errors.ErrNotAParticipant},
		{"requester missing with unknown ids", []string{"998", "999"}, errors.ErrNotAParticipant},
		{"garbage second id", []string{"1", "bob"}, errors.ErrInvalidParticipants},
	}
	for _, tt := range rejected {
		t.Run(fmt.Sprintf("should reject %s without touching storage", tt.name), func(t *testing.T) {
			m := newChatMocks(t)
			// No expectation: any repository call fails the test.
			_, err := m.svc.CreateConversation(ctx, chat.CreateConversationCommand{
				RequesterID:  alice.ID,
				Participants: tt.participants,
			})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("should compare ids canonically", func(t *testing.T) {
		req := require.New(t)
		m := newChatMocks(t)

		m.users.EXPECT().GetUsersByIDs([]chat.UserID{alice.ID, bob.ID}).Return([]chat.User{alice, bob}, nil)
		m.conversations.EXPECT().FindConversationByParticipantPair(gomock.Any()).Return(chat.Conversation{}, errors.ErrConversationNotFound)
		m.conversations.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).
			Return(chat.Conversation{ID: 10, Participants: chat.NewPair(alice.ID, bob.ID)}, nil)

		_, err := m.svc.CreateConversation(ctx, chat.CreateConversationCommand{
			RequesterID:  alice.ID,
			Participants: []string{"01", " 2"},
		})
		req.NoError(err)
	})

	t.Run("should reject the same user twice", func(t *testing.T) {
		m := newChatMocks(t)
		m.users.EXPECT().GetUsersByIDs([]chat.UserID{alice.ID, alice.ID}).Return([]chat.User{alice}, nil)

		_, err := m.svc.CreateConversation(ctx, chat.CreateConversationCommand{
			RequesterID:  alice.ID,
			Participants: []string{"1", "1"},
		})
		require.ErrorIs(t, err, errors.ErrInvalidParticipants)
	})

	t.Run("should reject an unknown other user", func(t *testing.T) {
		m := newChatMocks(t)
		m.users.EXPECT().GetUsersByIDs([]chat.UserID{alice.ID, 999}).Return([]chat.User{alice}, nil)

		_, err := m.svc.CreateConversation(ctx, chat.CreateConversationCommand{
			RequesterID:  alice.ID,
			Participants: []string{"1", "999"},
		})
		require.ErrorIs(t, err, errors.ErrInvalidParticipants)
	})
}

func TestChatService_ListConversations(t *testing.T) {
	req := require.New(t)
	m := newChatMocks(t)
	ab := aliceBob()
	bc := chat.Conversation{ID: 11, Participants: chat.NewPair(bob.ID, carol.ID)}

	m.conversations.EXPECT().FindConversationsForUser(bob.ID).Return([]chat.Conversation{ab, bc}, nil)
	// A single batch fetch for all participants
	m.users.EXPECT().GetUsersByIDs([]chat.UserID{alice.ID, bob.ID, bob.ID, carol.ID}).
		Return([]chat.User{alice, bob, carol}, nil).
		Times(1)

	views, err := m.svc.ListConversations(context.Background(), bob.ID)
	req.NoError(err)
	req.Len(views, 2)
	req.Equal("alice", views[0].Participants[0].Username)
	req.Equal("carol", views[1].Participants[1].Username)
}

func TestChatService_ListConversations_Empty(t *testing.T) {
	req := require.New(t)
	m := newChatMocks(t)
	m.conversations.EXPECT().FindConversationsForUser(carol.ID).Return(nil, nil)

	views, err := m.svc.ListConversations(context.Background(), carol.ID)
	req.NoError(err)
	req.Empty(views)
}

func TestChatService_Outsider_Is_Forbidden(t *testing.T) {
	ctx := context.Background()
	m := newChatMocks(t)
	m.conversations.EXPECT().GetConversation(chat.ConversationID(10)).Return(aliceBob(), nil).AnyTimes()
	cmd := chat.MessageCommand{RequesterID: carol.ID, ConversationID: 10, MessageID: 1}

	_, err := m.svc.ListMessages(ctx, carol.ID, 10)
	require.ErrorIs(t, err, errors.ErrNotAParticipant)

	_, err = m.svc.PostMessage(ctx, chat.PostMessageCommand{RequesterID: carol.ID, ConversationID: 10, Content: "hi"})
	require.ErrorIs(t, err, errors.ErrNotAParticipant)

	_, err = m.svc.GetMessage(ctx, cmd)
	require.ErrorIs(t, err, errors.ErrNotAParticipant)

	err = m.svc.DeleteMessage(ctx, cmd)
	require.ErrorIs(t, err, errors.ErrNotAParticipant)
}

func TestChatService_Unknown_Conversation(t *testing.T) {
	ctx := context.Background()
	m := newChatMocks(t)
	m.conversations.EXPECT().GetConversation(chat.ConversationID(404)).
		Return(chat.Conversation{}, errors.ErrConversationNotFound).AnyTimes()

	_, err := m.svc.ListMessages(ctx, alice.ID, 404)
	require.ErrorIs(t, err, errors.ErrConversationNotFound)

	_, err = m.svc.PostMessage(ctx, chat.PostMessageCommand{RequesterID: alice.ID, ConversationID: 404, Content: "hi"})
	require.ErrorIs(t, err, errors.ErrConversationNotFound)
}

func TestChatService_PostMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should force the requester as sender", func(t *testing.T) {
		req := require.New(t)
		m := newChatMocks(t)
		m.conversations.EXPECT().GetConversation(chat.ConversationID(10)).Return(aliceBob(), nil)
		m.messages.EXPECT().StoreMessage(chat.ConversationID(10), bob.ID, "hi", m.clock.At).
			Return(chat.Message{ID: 5, ConversationID: 10, SenderID: bob.ID, Content: "hi", Timestamp: m.clock.At}, nil)
		m.users.EXPECT().GetUsersByIDs([]chat.UserID{alice.ID, bob.ID}).Return([]chat.User{alice, bob}, nil)

		view, err := m.svc.PostMessage(ctx, chat.PostMessageCommand{RequesterID: bob.ID, ConversationID: 10, Content: "hi"})
		req.NoError(err)
		req.Equal(chat.Participant{ID: bob.ID, Username: "bob"}, view.Sender)
		req.Equal("hi", view.Content)
		req.Len(view.Participants, 2)
	})

	t.Run("should reject blank content", func(t *testing.T) {
		m := newChatMocks(t)
		m.conversations.EXPECT().GetConversation(chat.ConversationID(10)).Return(aliceBob(), nil).Times(2)
		m.messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := m.svc.PostMessage(ctx, chat.PostMessageCommand{RequesterID: bob.ID, ConversationID: 10, Content: ""})
		require.ErrorIs(t, err, errors.ErrEmptyContent)
		_, err = m.svc.PostMessage(ctx, chat.PostMessageCommand{RequesterID: bob.ID, ConversationID: 10, Content: " \n\t"})
		require.ErrorIs(t, err, errors.ErrEmptyContent)
	})
}

func TestChatService_ListMessages(t *testing.T) {
	req := require.New(t)
	m := newChatMocks(t)
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	stored := []chat.Message{
		{ID: 1, ConversationID: 10, SenderID: alice.ID, Content: "hi", Timestamp: at},
		{ID: 2, ConversationID: 10, SenderID: bob.ID, Content: "hey", Timestamp: at.Add(time.Second)},
	}
	m.conversations.EXPECT().GetConversation(chat.ConversationID(10)).Return(aliceBob(), nil)
	m.messages.EXPECT().GetMessages(chat.ConversationID(10)).Return(stored, nil)
	m.users.EXPECT().GetUsersByIDs(gomock.Any()).Return([]chat.User{alice, bob}, nil).Times(1)

	views, err := m.svc.ListMessages(context.Background(), bob.ID, 10)
	req.NoError(err)
	req.Len(views, 2)
	req.Equal("alice", views[0].Sender.Username)
	req.Equal("bob", views[1].Sender.Username)
	req.True(views[0].Timestamp.Before(views[1].Timestamp))
}

func TestChatService_DeleteMessage(t *testing.T) {
	ctx := context.Background()
	message := chat.Message{ID: 5, ConversationID: 10, SenderID: alice.ID, Content: "hi"}

	t.Run("should let the sender delete", func(t *testing.T) {
		m := newChatMocks(t)
		m.conversations.EXPECT().GetConversation(chat.ConversationID(10)).Return(aliceBob(), nil)
		m.messages.EXPECT().GetMessage(chat.ConversationID(10), chat.MessageID(5)).Return(message, nil)
		m.messages.EXPECT().DeleteMessage(chat.ConversationID(10), chat.MessageID(5)).Return(nil)

		err := m.svc.DeleteMessage(ctx, chat.MessageCommand{RequesterID: alice.ID, ConversationID: 10, MessageID: 5})
		require.NoError(t, err)
	})

	t.Run("should refuse the other participant", func(t *testing.T) {
		m := newChatMocks(t)
		m.conversations.EXPECT().GetConversation(chat.ConversationID(10)).Return(aliceBob(), nil)
		m.messages.EXPECT().GetMessage(chat.ConversationID(10), chat.MessageID(5)).Return(message, nil)
		m.messages.EXPECT().DeleteMessage(gomock.Any(), gomock.Any()).Times(0)

		err := m.svc.DeleteMessage(ctx, chat.MessageCommand{RequesterID: bob.ID, ConversationID: 10, MessageID: 5})
		require.ErrorIs(t, err, errors.ErrNotMessageSender)
	})

	t.Run("should report a missing message", func(t *testing.T) {
		m := newChatMocks(t)
		m.conversations.EXPECT().GetConversation(chat.ConversationID(10)).Return(aliceBob(), nil)
		m.messages.EXPECT().GetMessage(chat.ConversationID(10), chat.MessageID(6)).Return(chat.Message{}, errors.ErrMessageNotFound)

		err := m.svc.DeleteMessage(ctx, chat.MessageCommand{RequesterID: alice.ID, ConversationID: 10, MessageID: 6})
		require.ErrorIs(t, err, errors.ErrMessageNotFound)
	})
}
