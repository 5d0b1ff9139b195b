package chat

type CreateConversationCommand struct {
	RequesterID UserID
	// Participants holds the raw identifiers as sent by the client.
	// They are canonicalized by the service, not by the transport.
	Participants []string
}

type PostMessageCommand struct {
	RequesterID    UserID
	ConversationID ConversationID
	Content        string
}

type MessageCommand struct {
	RequesterID    UserID
	ConversationID ConversationID
	MessageID      MessageID
}
