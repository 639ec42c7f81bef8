package portal

import (
	"net/http"

	"github.com/idefi-ai/agents/lib/session"
)

// authenticate rejects requests without a valid bearer token and stores the session in the request context.
func (p *Portal) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		s, err := p.ver.FromRequest(r)
		if err != nil {
			p.reply(rw, r, http.StatusOK, nil, err)

			return
		}

		next.ServeHTTP(rw, r.WithContext(session.WithSession(r.Context(), s)))
	})
}
