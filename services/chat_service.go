package services

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"pairchat/domain/chat"
	"pairchat/errors"
	"pairchat/repositories"

	"github.com/samber/lo"
)

type IChatService interface {
	CreateConversation(ctx context.Context, cmd chat.CreateConversationCommand) (chat.ConversationView, error)
	ListConversations(ctx context.Context, requesterID chat.UserID) ([]chat.ConversationView, error)
	ListMessages(ctx context.Context, requesterID chat.UserID, conversationID chat.ConversationID) ([]chat.MessageView, error)
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.MessageView, error)
	GetMessage(ctx context.Context, cmd chat.MessageCommand) (chat.MessageView, error)
	DeleteMessage(ctx context.Context, cmd chat.MessageCommand) error
}

type ChatService struct {
	log                    *slog.Logger
	userRepository         repositories.IUserRepository
	conversationRepository repositories.IConversationRepository
	messageRepository      repositories.IMessageRepository
	clock                  chat.Clock
}

func NewChatService(
	log *slog.Logger,
	users repositories.IUserRepository,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	clock chat.Clock,
) *ChatService {
	return &ChatService{
		log:                    log,
		userRepository:         users,
		conversationRepository: conversations,
		messageRepository:      messages,
		clock:                  clock,
	}
}

// CreateConversation checks, in this order and stopping at the first failure:
//  1. exactly two participant ids were given
//  2. the requester is one of them
//  3. both ids resolve to two distinct existing users
//  4. no conversation exists yet for that unordered pair
//
// The repository enforces 4 again atomically, which closes the race between
// two concurrent requests for the same pair.
func (s *ChatService) CreateConversation(ctx context.Context, cmd chat.CreateConversationCommand) (chat.ConversationView, error) {
	if len(cmd.Participants) != 2 {
		return chat.ConversationView{}, errors.ErrInvalidParticipantCount
	}

	ids := make([]chat.UserID, 0, 2)
	for _, raw := range cmd.Participants {
		if id, err := chat.ParseUserID(raw); err == nil {
			ids = append(ids, id)
		}
	}
	if !lo.Contains(ids, cmd.RequesterID) {
		return chat.ConversationView{}, errors.ErrNotAParticipant
	}
	if len(ids) != 2 {
		return chat.ConversationView{}, errors.ErrInvalidParticipants
	}

	users, err := s.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return chat.ConversationView{}, err
	}
	if len(users) != 2 {
		return chat.ConversationView{}, errors.ErrInvalidParticipants
	}

	pair := chat.NewPair(ids[0], ids[1])
	_, err = s.conversationRepository.FindConversationByParticipantPair(pair)
	switch {
	case err == nil:
		return chat.ConversationView{}, errors.ErrConversationAlreadyExists
	case !stderrors.Is(err, errors.ErrConversationNotFound):
		return chat.ConversationView{}, err
	}

	if err := ctx.Err(); err != nil {
		return chat.ConversationView{}, err
	}
	conversation, err := s.conversationRepository.CreateConversation(pair, s.clock.Now())
	if err != nil {
		return chat.ConversationView{}, err
	}

	s.log.Info("Conversation created", "conversation_id", conversation.ID, "by", cmd.RequesterID)
	return toConversationView(conversation, lo.KeyBy(users, func(u chat.User) chat.UserID { return u.ID })), nil
}

func (s *ChatService) ListConversations(_ context.Context, requesterID chat.UserID) ([]chat.ConversationView, error) {
	conversations, err := s.conversationRepository.FindConversationsForUser(requesterID)
	if err != nil {
		return nil, err
	}

	// One batch fetch for every participant of every listed conversation.
	ids := lo.FlatMap(conversations, func(c chat.Conversation, _ int) []chat.UserID {
		members := c.Participants.Members()
		return members[:]
	})
	users, err := s.usersByID(ids)
	if err != nil {
		return nil, err
	}

	return lo.Map(conversations, func(c chat.Conversation, _ int) chat.ConversationView {
		return toConversationView(c, users)
	}), nil
}

// ListMessages returns the messages oldest first.
func (s *ChatService) ListMessages(_ context.Context, requesterID chat.UserID,
	conversationID chat.ConversationID) ([]chat.MessageView, error) {
	conversation, err := s.authorize(requesterID, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepository.GetMessages(conversation.ID)
	if err != nil {
		return nil, err
	}
	participants, users, err := s.participants(conversation)
	if err != nil {
		return nil, err
	}

	return lo.Map(messages, func(m chat.Message, _ int) chat.MessageView {
		return toMessageView(m, users, participants)
	}), nil
}

// PostMessage stores the message with the requester as sender. Content is kept verbatim.
func (s *ChatService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.MessageView, error) {
	conversation, err := s.authorize(cmd.RequesterID, cmd.ConversationID)
	if err != nil {
		return chat.MessageView{}, err
	}
	if strings.TrimSpace(cmd.Content) == "" {
		return chat.MessageView{}, errors.ErrEmptyContent
	}
	if err := ctx.Err(); err != nil {
		return chat.MessageView{}, err
	}

	message, err := s.messageRepository.StoreMessage(conversation.ID, cmd.RequesterID, cmd.Content, s.clock.Now())
	if err != nil {
		return chat.MessageView{}, err
	}
	participants, users, err := s.participants(conversation)
	if err != nil {
		return chat.MessageView{}, err
	}

	s.log.Debug("Message posted", "conversation_id", conversation.ID, "message_id", message.ID, "sender", cmd.RequesterID)
	return toMessageView(message, users, participants), nil
}

func (s *ChatService) GetMessage(_ context.Context, cmd chat.MessageCommand) (chat.MessageView, error) {
	conversation, err := s.authorize(cmd.RequesterID, cmd.ConversationID)
	if err != nil {
		return chat.MessageView{}, err
	}

	message, err := s.messageRepository.GetMessage(conversation.ID, cmd.MessageID)
	if err != nil {
		return chat.MessageView{}, err
	}
	participants, users, err := s.participants(conversation)
	if err != nil {
		return chat.MessageView{}, err
	}
	return toMessageView(message, users, participants), nil
}

// DeleteMessage permanently removes a message. Only its sender may do so.
func (s *ChatService) DeleteMessage(ctx context.Context, cmd chat.MessageCommand) error {
	conversation, err := s.authorize(cmd.RequesterID, cmd.ConversationID)
	if err != nil {
		return err
	}

	message, err := s.messageRepository.GetMessage(conversation.ID, cmd.MessageID)
	if err != nil {
		return err
	}
	if message.SenderID != cmd.RequesterID {
		return errors.ErrNotMessageSender
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.messageRepository.DeleteMessage(conversation.ID, message.ID); err != nil {
		return err
	}
	s.log.Info("Message deleted", "conversation_id", conversation.ID, "message_id", message.ID, "by", cmd.RequesterID)
	return nil
}

// authorize resolves the conversation and checks the requester takes part in it.
func (s *ChatService) authorize(requesterID chat.UserID, conversationID chat.ConversationID) (chat.Conversation, error) {
	conversation, err := s.conversationRepository.GetConversation(conversationID)
	if err != nil {
		return chat.Conversation{}, err
	}
	if !conversation.HasParticipant(requesterID) {
		return chat.Conversation{}, errors.ErrNotAParticipant
	}
	return conversation, nil
}

func (s *ChatService) participants(conversation chat.Conversation) ([]chat.Participant, map[chat.UserID]chat.User, error) {
	members := conversation.Participants.Members()
	users, err := s.usersByID(members[:])
	if err != nil {
		return nil, nil, err
	}
	return toParticipants(conversation, users), users, nil
}

func (s *ChatService) usersByID(ids []chat.UserID) (map[chat.UserID]chat.User, error) {
	if len(ids) == 0 {
		return map[chat.UserID]chat.User{}, nil
	}
	users, err := s.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return nil, err
	}
	return lo.KeyBy(users, func(u chat.User) chat.UserID { return u.ID }), nil
}

func participant(id chat.UserID, users map[chat.UserID]chat.User) chat.Participant {
	if u, ok := users[id]; ok {
		return u.Participant()
	}
	return chat.Participant{ID: id}
}

func toParticipants(conversation chat.Conversation, users map[chat.UserID]chat.User) []chat.Participant {
	members := conversation.Participants.Members()
	return lo.Map(members[:], func(id chat.UserID, _ int) chat.Participant {
		return participant(id, users)
	})
}

func toConversationView(conversation chat.Conversation, users map[chat.UserID]chat.User) chat.ConversationView {
	return chat.ConversationView{
		ID:           conversation.ID,
		Participants: toParticipants(conversation, users),
		CreatedAt:    conversation.CreatedAt,
	}
}

func toMessageView(message chat.Message, users map[chat.UserID]chat.User, participants []chat.Participant) chat.MessageView {
	return chat.MessageView{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Sender:         participant(message.SenderID, users),
		Content:        message.Content,
		Timestamp:      message.Timestamp,
		Participants:   participants,
	}
}
