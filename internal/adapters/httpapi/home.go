package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/app"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/httpjson"
)

type HomeHandler struct {
	home *app.HomeService
}

func NewHomeHandler(home *app.HomeService) *HomeHandler {
	return &HomeHandler{home: home}
}

func (h *HomeHandler) Routes(r chi.Router) {
	r.Get("/home", h.get)
}

func (h *HomeHandler) get(w http.ResponseWriter, r *http.Request) {
	home, err := h.home.Get(r.Context(), bearerToken(r))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, home)
}
