package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/app"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/httpjson"
)

type SessionsHandler struct {
	sessions *app.SessionService
}

func NewSessionsHandler(sessions *app.SessionService) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

func (h *SessionsHandler) Routes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logoff", h.logoff)
	r.Get("/info", h.info)
}

func (h *SessionsHandler) login(w http.ResponseWriter, r *http.Request) {
	var req app.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.sessions.Login(r.Context(), req.Server, req.Username, req.Password)
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httpjson.Write(w, status, res)
}

func (h *SessionsHandler) logoff(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logoff(r.Context(), bearerToken(r)); err != nil {
		writeErrLogged(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) info(w http.ResponseWriter, r *http.Request) {
	info, err := h.sessions.UserInfo(r.Context(), bearerToken(r))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, info)
}
