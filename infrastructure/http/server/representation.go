package server

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"pairchat/domain/chat"
	"pairchat/services"

	"github.com/samber/lo"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Identifiers may be sent as JSON numbers or strings; both are kept raw
// and canonicalized by the chat service.
type createConversationRequest struct {
	Participants []json.RawMessage `json:"participants"`
}

// Any "sender" field sent by the client is ignored: the sender is always the caller.
type createMessageRequest struct {
	Content string `json:"content"`
}

type userResponse struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

type tokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type accessResponse struct {
	Access string `json:"access"`
}

type conversationResponse struct {
	ID           uint64         `json:"id"`
	Participants []userResponse `json:"participants"`
	CreatedAt    time.Time      `json:"created_at"`
}

type messageResponse struct {
	ID           uint64         `json:"id"`
	Conversation uint64         `json:"conversation"`
	Sender       userResponse   `json:"sender"`
	Content      string         `json:"content"`
	Timestamp    time.Time      `json:"timestamp"`
	Participants []userResponse `json:"participants"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func rawIdentifiers(raws []json.RawMessage) []string {
	return lo.Map(raws, func(raw json.RawMessage, _ int) string {
		trimmed := bytes.TrimSpace(raw)
		var s string
		if len(trimmed) > 0 && trimmed[0] == '"' && json.Unmarshal(trimmed, &s) == nil {
			return s
		}
		return strings.TrimSpace(string(trimmed))
	})
}

func toUserResponse(p chat.Participant) userResponse {
	return userResponse{ID: uint64(p.ID), Username: p.Username}
}

func toUserResponses(participants []chat.Participant) []userResponse {
	return lo.Map(participants, func(p chat.Participant, _ int) userResponse {
		return toUserResponse(p)
	})
}

func toConversationResponse(v chat.ConversationView) conversationResponse {
	return conversationResponse{
		ID:           uint64(v.ID),
		Participants: toUserResponses(v.Participants),
		CreatedAt:    v.CreatedAt,
	}
}

func toMessageResponse(v chat.MessageView) messageResponse {
	return messageResponse{
		ID:           uint64(v.ID),
		Conversation: uint64(v.ConversationID),
		Sender:       toUserResponse(v.Sender),
		Content:      v.Content,
		Timestamp:    v.Timestamp,
		Participants: toUserResponses(v.Participants),
	}
}

func toTokenPairResponse(p services.TokenPair) tokenPairResponse {
	return tokenPairResponse{Access: string(p.Access), Refresh: string(p.Refresh)}
}
