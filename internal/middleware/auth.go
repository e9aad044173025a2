package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/memopad/internal/auth"
	"github.com/dukerupert/memopad/internal/store"
)

const sessionCookieName = "memopad_session"

// RequireAuth validates the session cookie, loads the owning user, and
// populates auth.Context for downstream handlers. Everything else gets a JSON
// 401 before any routing happens.
func RequireAuth(sessionStore *store.SessionStore, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				authRequired(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				authRequired(w)
				return
			}

			user, err := userStore.GetByID(sess.UserID)
			if err != nil || user == nil {
				authRequired(w)
				return
			}

			ac := auth.Context{
				UserID:    user.ID,
				SessionID: sess.ID,
				Timezone:  user.Timezone,
			}

			ctx := auth.WithContext(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authRequired(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
}
