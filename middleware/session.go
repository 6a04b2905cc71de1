package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/session"
)

// VisitorData is what the CMS keeps in each session: the signed-in user's
// display state and flash notices pending for the next rendered page.
type VisitorData struct {
	Username string           `json:"username,omitempty"`
	Admin    bool             `json:"admin,omitempty"`
	Flash    []dispatch.Flash `json:"flash,omitempty"`
}

// SessionHandle is the per-request view of the visitor's session. Module
// handlers reach it through SessionFromContext to sign users in and out.
// It also implements dispatch.Flasher. Safe for concurrent use by the
// handlers running in the dispatch fan-out.
type SessionHandle struct {
	mu   sync.Mutex
	sess *session.Session[VisitorData]
}

// Login binds the session to a user, rotating the session token.
func (h *SessionHandle) Login(userID uuid.UUID, username string, admin bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.sess.Authenticate(userID); err != nil {
		return err
	}
	data := h.sess.Data
	data.Username = username
	data.Admin = admin
	h.sess.SetData(data)
	return nil
}

// Logout returns the session to the anonymous state, keeping it alive for
// flash messages on the follow-up page.
func (h *SessionHandle) Logout() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sess.Logout()
}

// Destroy deletes the session entirely; the transport clears the cookie.
func (h *SessionHandle) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sess.Destroy()
}

// Flash queues a one-shot notice for the next rendered page.
func (h *SessionHandle) Flash(level, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data := h.sess.Data
	data.Flash = append(data.Flash, dispatch.Flash{Level: level, Message: message})
	h.sess.SetData(data)
}

// Drain returns queued notices and clears them from the session.
func (h *SessionHandle) Drain() []dispatch.Flash {
	h.mu.Lock()
	defer h.mu.Unlock()

	notices := h.sess.Data.Flash
	if len(notices) == 0 {
		return nil
	}
	data := h.sess.Data
	data.Flash = nil
	h.sess.SetData(data)
	return notices
}

type sessionCtxKey struct{}

// SessionFromContext extracts the request's session handle.
func SessionFromContext(ctx context.Context) (*SessionHandle, bool) {
	h, ok := ctx.Value(sessionCtxKey{}).(*SessionHandle)
	return h, ok
}

// commitWriter commits the session right before the first byte of the
// response, so the Set-Cookie header makes it out.
type commitWriter struct {
	http.ResponseWriter
	commit func()
	once   sync.Once
}

func (w *commitWriter) WriteHeader(code int) {
	w.once.Do(w.commit)
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.once.Do(w.commit)
	return w.ResponseWriter.Write(b)
}

// Session loads the visitor's session, injects the user identity and flash
// capability into the request context, and commits session changes before
// the response is written.
func Session(tr *session.Transport[VisitorData], log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := tr.Load(r)
			if err != nil {
				log.ErrorContext(r.Context(), "session load failed", logger.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError),
					http.StatusInternalServerError)
				return
			}

			handle := &SessionHandle{sess: &sess}
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, handle)
			ctx = dispatch.WithFlasher(ctx, handle)
			if sess.IsAuthenticated() {
				ctx = dispatch.WithUser(ctx, &dispatch.User{
					ID:       sess.UserID,
					Username: sess.Data.Username,
					Admin:    sess.Data.Admin,
				})
			}

			cw := &commitWriter{ResponseWriter: w, commit: func() {
				handle.mu.Lock()
				defer handle.mu.Unlock()
				if err := tr.Commit(w, r, &sess); err != nil {
					log.ErrorContext(r.Context(), "session commit failed", logger.Error(err))
				}
			}}

			next.ServeHTTP(cw, r.WithContext(ctx))
			cw.once.Do(cw.commit)
		})
	}
}
