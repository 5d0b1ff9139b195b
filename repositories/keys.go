package repositories

import (
	"fmt"
	"time"

	"pairchat/domain/chat"
)

// Key layout. Numeric parts are zero padded so lexicographic order is numeric order.
//
//	user:<uid>                    -> diskUser
//	username:<name>               -> uid
//	conv:<cid>                    -> diskConversation
//	pair:<low uid>:<high uid>     -> cid (uniqueness of the unordered pair)
//	member:<uid>:<cid>            -> empty
//	msg:<cid>:<unix nano>:<mid>   -> diskMessage
//	msgref:<mid>                  -> msg key

const (
	userPrefix         = "user:"
	conversationPrefix = "conv:"
)

func userKey(id chat.UserID) []byte {
	return []byte(fmt.Sprintf("user:%020d", id))
}

func usernameKey(username string) []byte {
	return []byte("username:" + username)
}

func conversationKey(id chat.ConversationID) []byte {
	return []byte(fmt.Sprintf("conv:%020d", id))
}

func pairKey(pair chat.Pair) []byte {
	return []byte(fmt.Sprintf("pair:%020d:%020d", pair.Low, pair.High))
}

func memberPrefix(userID chat.UserID) []byte {
	return []byte(fmt.Sprintf("member:%020d:", userID))
}

func memberKey(userID chat.UserID, conversationID chat.ConversationID) []byte {
	return []byte(fmt.Sprintf("member:%020d:%020d", userID, conversationID))
}

func messagePrefix(conversationID chat.ConversationID) []byte {
	return []byte(fmt.Sprintf("msg:%020d:", conversationID))
}

func messageKey(conversationID chat.ConversationID, at time.Time, id chat.MessageID) []byte {
	return []byte(fmt.Sprintf("msg:%020d:%019d:%020d", conversationID, at.UnixNano(), id))
}

func messageRefKey(id chat.MessageID) []byte {
	return []byte(fmt.Sprintf("msgref:%020d", id))
}
