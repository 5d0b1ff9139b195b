// Package chat contains core concepts of the two-party chat system.
// No transport or storage logic should be added here.
package chat

import (
	"fmt"
	"strconv"
	"strings"
)

type UserID uint64

type ConversationID uint64

type MessageID uint64

func (id UserID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id ConversationID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id MessageID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseUserID reads the canonical decimal form of a user identifier.
// Surrounding whitespace is ignored, so "7", " 7" and "007" are the same user.
func ParseUserID(raw string) (UserID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return UserID(v), nil
}

func ParseConversationID(raw string) (ConversationID, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid conversation id %q", raw)
	}
	return ConversationID(v), nil
}

func ParseMessageID(raw string) (MessageID, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid message id %q", raw)
	}
	return MessageID(v), nil
}
