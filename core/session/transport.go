package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/cliftonc/calipso/core/cookie"
)

// DefaultCookieName is the session cookie issued by the transport.
const DefaultCookieName = "calipso.sid"

// Transport moves session tokens through signed cookies on plain net/http
// requests.
type Transport[Data any] struct {
	manager *Manager[Data]
	jar     *cookie.Jar
	name    string
}

// NewTransport creates a cookie transport. An empty name uses
// DefaultCookieName.
func NewTransport[Data any](manager *Manager[Data], jar *cookie.Jar, name string) *Transport[Data] {
	if name == "" {
		name = DefaultCookieName
	}
	return &Transport[Data]{manager: manager, jar: jar, name: name}
}

// Load resolves the request's session. Absent or invalid cookies degrade to
// a fresh anonymous session.
func (t *Transport[Data]) Load(r *http.Request) (Session[Data], error) {
	token, err := t.jar.Get(r, t.name)
	if err != nil {
		token = ""
	}
	return t.manager.Load(r.Context(), token)
}

// Commit persists the session and keeps the cookie in sync: a destroyed
// session clears the cookie, a saved one refreshes the token and MaxAge.
func (t *Transport[Data]) Commit(w http.ResponseWriter, r *http.Request, sess *Session[Data]) error {
	err := t.manager.Commit(r.Context(), sess)
	if errors.Is(err, ErrDeleted) {
		t.jar.Delete(w, t.name)
		return nil
	}
	if err != nil {
		return err
	}
	if sess.IsModified() {
		t.jar.Set(w, t.name, sess.Token, int(time.Until(sess.ExpiresAt).Seconds()))
	}
	return nil
}
