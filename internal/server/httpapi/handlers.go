package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/accountkeeper/internal/rpc"
	"github.com/dmitrijs2005/accountkeeper/internal/server/configuration"
	"github.com/dmitrijs2005/accountkeeper/internal/server/facade"
	"github.com/julienschmidt/httprouter"
)

type errorBody struct {
	Error string `json:"Error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func statusFor(kind facade.Kind) int {
	switch kind {
	case facade.KindNotFound:
		return http.StatusNotFound
	case facade.KindInvalidCredentials:
		return http.StatusUnauthorized
	case facade.KindConflict:
		return http.StatusConflict
	case facade.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	msg := "internal error"
	var fe *facade.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	writeJSON(w, statusFor(facade.KindOf(err)), errorBody{Error: msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, 2*configuration.MaxSize)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return false
	}
	return true
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, rpc.PingResponse{Status: "OK"})
}

func (s *HTTPServer) listUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	views, err := s.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	users := make([]*rpc.User, 0, len(views))
	for _, v := range views {
		users = append(users, rpc.UserFromView(v))
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := s.accounts.GetUser(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.UserFromView(view))
}

func (s *HTTPServer) createUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req rpc.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := s.accounts.CreateUser(r.Context(), req.Name, req.Configuration)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/Users/"+view.ID)
	writeJSON(w, http.StatusCreated, rpc.UserFromView(view))
}

func (s *HTTPServer) updateUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req rpc.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := s.accounts.UpdateUser(r.Context(), ps.ByName("id"), req.Name, req.Configuration)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.UserFromView(view))
}

func (s *HTTPServer) deleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if err := s.accounts.DeleteUser(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info(r.Context(), "Deleted", "account_id", id, "by", callerFrom(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) authenticate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req rpc.AuthenticateRequest
	if !decode(w, r, &req) {
		return
	}
	pair, err := s.accounts.Authenticate(r.Context(), ps.ByName("id"), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.AuthenticateResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *HTTPServer) updatePassword(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req rpc.UpdatePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ResetPassword {
		if _, err := s.authorize(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}
	}
	err := s.accounts.UpdatePassword(r.Context(), ps.ByName("id"), req.CurrentPassword, req.NewPassword, req.ResetPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) refreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req rpc.RefreshTokenRequest
	if !decode(w, r, &req) {
		return
	}
	pair, err := s.accounts.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.RefreshTokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}
