package testutil

import (
	"net/http"

	id "taskmanager/pkg/domain"
	"taskmanager/pkg/requestcontext"
)

// WithUserID stores userID on the request context the way RequireAuth does.
func WithUserID(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// FakeAuth returns a middleware that authenticates every request as userID.
func FakeAuth(userID func() id.UserID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, WithUserID(r, userID()))
		})
	}
}
