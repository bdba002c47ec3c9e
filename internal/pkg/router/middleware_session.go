package router

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/hash"
	"github.com/shandysiswandi/sportsclub/internal/pkg/uid"
)

const (
	defaultSessionCookie = "sc_session"
	defaultSessionTTL    = 24 * time.Hour
)

type sessionKey struct{}

// GetSessionID returns the id carried by the request's signed session
// cookie. Every request passing through the router has one.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok {
		return id
	}
	return ""
}

// SetSessionID is used by tests of handlers that run outside the router.
func SetSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// sessionCookie encodes "<id>.<hmac(id)>" so a client cannot choose or
// guess another client's session id.
type sessionCookie struct {
	name   string
	secure bool
	maxAge time.Duration
	signer *hash.HMACSHA256
}

func newSessionCookie(cfg config.Config) *sessionCookie {
	sc := &sessionCookie{name: defaultSessionCookie, maxAge: defaultSessionTTL}
	secret := ""
	if cfg != nil {
		if n := cfg.GetString("app.session.cookie_name"); n != "" {
			sc.name = n
		}
		sc.secure = cfg.GetBool("app.session.cookie_secure")
		sc.maxAge = durationOr(cfg, "app.session.ttl_seconds", defaultSessionTTL)
		secret = cfg.GetString("app.session.secret")
	}
	if secret == "" {
		slog.Error("app.session.secret is empty, session cookies are signed with a per process key")
		secret = rand.Text()
	}
	sc.signer = hash.NewHMACSHA256(secret)
	return sc
}

func (sc *sessionCookie) encode(id string) string {
	sig, _ := sc.signer.Hash(id)
	return id + "." + string(sig)
}

func (sc *sessionCookie) decode(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" || !sc.signer.Verify(sig, id) {
		return "", false
	}
	return id, true
}

func session(sc *sessionCookie, gen uid.StringID) Middleware {
	if gen == nil {
		gen = uid.NewRandomUUID()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(sc.name); err == nil {
				id, _ = sc.decode(c.Value)
			}
			if id == "" {
				id = gen.Generate()
			}

			// Refreshed on every response for a sliding expiry.
			http.SetCookie(w, &http.Cookie{
				Name:     sc.name,
				Value:    sc.encode(id),
				Path:     "/",
				MaxAge:   int(sc.maxAge.Seconds()),
				HttpOnly: true,
				Secure:   sc.secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(SetSessionID(r.Context(), id)))
		})
	}
}
