package chats

import "github.com/pliu/nexuschat/internal/apperr"

var (
	ErrPartnerNotFound = apperr.NotFound("chat partner not found")
	ErrChatNotFound    = apperr.NotFound("chat not found")
	ErrEmptyMessage    = apperr.InvalidArg("message text is empty")
	ErrSelfChat        = apperr.InvalidArg("cannot open a chat with yourself")
)
