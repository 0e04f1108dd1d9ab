package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type ctxKey string

const sessionKey ctxKey = "session_id"

// SessionCookieName identifica la sesión de consulta del navegador.
const SessionCookieName = "vetreport_session"

// SessionContext:
// - Si viene la cookie de sesión => guarda el ID en el contexto.
// - Si viene header X-Session-ID (clientes API / tests) => idem, pisa la cookie.
// - Si no hay nada, el request sigue igual; el handler decide si crea una sesión.
// No valida que la sesión exista: eso lo hace intake.
func SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookieName); err == nil {
			id = strings.TrimSpace(c.Value)
		}
		if h := strings.TrimSpace(r.Header.Get("X-Session-ID")); h != "" {
			id = h
		}

		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// SetSessionCookie deja la cookie para los próximos requests del navegador.
func SetSessionCookie(w http.ResponseWriter, id string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}
