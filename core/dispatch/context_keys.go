package dispatch

import "context"

// Unexported key types avoid context key collisions.
type (
	userContextKey       struct{}
	flasherContextKey    struct{}
	translatorContextKey struct{}
	requestIDContextKey  struct{}
)

// WithUser returns a context carrying the session user.
func WithUser(ctx context.Context, u *User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext extracts the session user, nil when anonymous.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey{}).(*User)
	return u
}

// WithFlasher returns a context carrying the flash-message capability.
func WithFlasher(ctx context.Context, f Flasher) context.Context {
	if f == nil {
		return ctx
	}
	return context.WithValue(ctx, flasherContextKey{}, f)
}

// FlasherFromContext extracts the flasher, nil when absent.
func FlasherFromContext(ctx context.Context) Flasher {
	f, _ := ctx.Value(flasherContextKey{}).(Flasher)
	return f
}

// WithTranslator returns a context carrying the per-request translation
// function.
func WithTranslator(ctx context.Context, t func(string) string) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, translatorContextKey{}, t)
}

// TranslatorFromContext extracts the translator, nil when absent.
func TranslatorFromContext(ctx context.Context) func(string) string {
	t, _ := ctx.Value(translatorContextKey{}).(func(string) string)
	return t
}

// WithRequestID returns a context carrying the request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext extracts the request ID, "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
