package chat

import (
	"time"
)

// User is owned by the identity side of the system.
// The chat core only reads it.
type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Participant is the public projection of a User.
type Participant struct {
	ID       UserID
	Username string
}

func (u User) Participant() Participant {
	return Participant{ID: u.ID, Username: u.Username}
}

// Conversation always has exactly two participants, fixed at creation.
type Conversation struct {
	ID           ConversationID
	Participants Pair
	CreatedAt    time.Time
}

func (c Conversation) HasParticipant(id UserID) bool {
	return c.Participants.Contains(id)
}

type Message struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       UserID
	Content        string
	Timestamp      time.Time
}

// ConversationView is a conversation with its participants resolved.
type ConversationView struct {
	ID           ConversationID
	Participants []Participant
	CreatedAt    time.Time
}

// MessageView is a message with sender and conversation participants resolved.
type MessageView struct {
	ID             MessageID
	ConversationID ConversationID
	Sender         Participant
	Content        string
	Timestamp      time.Time
	Participants   []Participant
}
