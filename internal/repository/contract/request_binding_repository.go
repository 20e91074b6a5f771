package contract

import "context"

// RequestBindingRepository holds the ephemeral request id bound to each
// active conversation. Get returns ("", false) when no binding exists.
type RequestBindingRepository interface {
	Bind(ctx context.Context, conversationId, requestId string) error
	Get(ctx context.Context, conversationId string) (string, bool, error)
	Clear(ctx context.Context, conversationId string) error
}
