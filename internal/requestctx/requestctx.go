package requestctx

import "context"

const (
	HeaderRequestID     = "X-Request-Id"
	HeaderInternalToken = "X-Internal-Token"
)

type requestDataKey struct{}

// RequestData travels with an inbound request so outbound calls can carry it on.
type RequestData struct {
	RequestID     string
	UserID        string
	InternalToken string
}

func With(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func Get(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// Ensure returns the request data on ctx, attaching an empty one when absent.
func Ensure(ctx context.Context) (context.Context, *RequestData) {
	if rd := Get(ctx); rd != nil {
		return ctx, rd
	}
	rd := &RequestData{}
	return With(ctx, rd), rd
}
