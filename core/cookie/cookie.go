package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Jar signs and verifies HTTP cookies with HMAC-SHA256. Multiple secrets
// support rotation: the first secret signs, every secret verifies, so old
// cookies stay valid while a new secret rolls out.
type Jar struct {
	secrets  []string
	path     string
	secure   bool
	sameSite http.SameSite
}

// minSecretLength keeps HMAC keys at a usable strength.
const minSecretLength = 32

// Option configures the Jar.
type Option func(*Jar)

// WithSecure marks issued cookies as HTTPS-only.
func WithSecure(secure bool) Option {
	return func(j *Jar) { j.secure = secure }
}

// WithSameSite overrides the default Lax same-site policy.
func WithSameSite(mode http.SameSite) Option {
	return func(j *Jar) { j.sameSite = mode }
}

// New creates a Jar. At least one secret of minSecretLength characters is
// required.
func New(secrets []string, opts ...Option) (*Jar, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	j := &Jar{
		secrets:  secrets,
		path:     "/",
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Set issues a signed, HttpOnly cookie valid for maxAge seconds.
func (j *Jar) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    j.sign(value),
		Path:     j.path,
		MaxAge:   maxAge,
		Secure:   j.secure,
		HttpOnly: true,
		SameSite: j.sameSite,
	})
}

// Get retrieves and verifies a signed cookie value.
func (j *Jar) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return j.verify(c.Value)
}

// Delete expires the named cookie.
func (j *Jar) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     j.path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   j.secure,
		HttpOnly: true,
		SameSite: j.sameSite,
	})
}

func (j *Jar) sign(value string) string {
	mac := hmac.New(sha256.New, []byte(j.secrets[0]))
	mac.Write([]byte(value))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))
	return base64.URLEncoding.EncodeToString([]byte(value)) + "|" + sig
}

func (j *Jar) verify(signed string) (string, error) {
	encoded, sig, ok := strings.Cut(signed, "|")
	if !ok {
		return "", ErrInvalidFormat
	}

	value, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidFormat
	}
	wantSig, err := base64.URLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrInvalidFormat
	}

	for _, secret := range j.secrets {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(value)
		if subtle.ConstantTimeCompare(mac.Sum(nil), wantSig) == 1 {
			return string(value), nil
		}
	}
	return "", ErrInvalidSignature
}
