package wsrouter

import "context"

type ctxKey string

const (
	messageTypeKey ctxKey = "message_type"
)

// GetMessageTypeFromCtx returns the type of the message being routed, or an
// empty string outside of a handler call.
func GetMessageTypeFromCtx(ctx context.Context) string {
	messageType, ok := ctx.Value(messageTypeKey).(string)
	if !ok {
		return ""
	}

	return messageType
}
