package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	appI18n "github.com/llm4edu/freetext/internal/i18n"
)

// SecretHeader carries the shared secret for assignment authoring endpoints.
const SecretHeader = "assignment-creation-secret"

// requireSecret gates authoring endpoints behind the shared creation secret.
func (h *Handler) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(SecretHeader)
		want := h.config.CreationSecret
		if want == "" || len(got) != len(want) ||
			subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			slog.Warn("rejected authoring request", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, appI18n.T(r.Context(), "Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
