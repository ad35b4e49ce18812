package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/julienschmidt/httprouter"
)

type ctxKey string

const callerKey ctxKey = "caller"

var errMissingToken = errors.New("missing token")

func bearerToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// authorize checks the bearer access token and returns the caller's id.
func (s *HTTPServer) authorize(r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" {
		return "", errMissingToken
	}
	return auth.GetAccountIDFromToken(token, s.jwtSecret)
}

func (s *HTTPServer) requireToken(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		caller, err := s.authorize(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)), ps)
	}
}

func callerFrom(ctx context.Context) string {
	id, _ := ctx.Value(callerKey).(string)
	return id
}
