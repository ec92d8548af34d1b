package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/app"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/httpjson"
)

// ProfilesHandler porte les profils et tout ce qui est rangé dessous
// (favoris, positions de lecture).
type ProfilesHandler struct {
	profiles  *app.ProfileService
	favorites *app.FavoriteService
	progress  *app.ProgressService
}

func NewProfilesHandler(profiles *app.ProfileService, favorites *app.FavoriteService, progress *app.ProgressService) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, favorites: favorites, progress: progress}
}

func (h *ProfilesHandler) Routes(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{profileID}", func(r chi.Router) {
			r.Delete("/", h.delete)

			if h.favorites != nil {
				r.Get("/favorites", h.listFavorites)
				r.Put("/favorites/{kind}/{id}", h.addFavorite)
				r.Delete("/favorites/{kind}/{id}", h.removeFavorite)
			}
			if h.progress != nil {
				r.Get("/progress", h.listProgress)
				r.Put("/progress/{kind}/{id}", h.recordProgress)
				r.Delete("/progress/{kind}/{id}", h.removeProgress)
			}
		})
	})
}

func (h *ProfilesHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.profiles.List(r.Context(), bearerToken(r))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

func (h *ProfilesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	p, created, err := h.profiles.Create(r.Context(), bearerToken(r), req.Name)
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpjson.Write(w, status, p)
}

func (h *ProfilesHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.Delete(r.Context(), bearerToken(r), chi.URLParam(r, "profileID")); err != nil {
		writeErrLogged(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfilesHandler) listFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := h.favorites.List(r.Context(), bearerToken(r), chi.URLParam(r, "profileID"))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, favs)
}

func (h *ProfilesHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, chi.URLParam(r, "kind"))
	if !ok {
		return
	}
	fav, created, err := h.favorites.Add(r.Context(), bearerToken(r), chi.URLParam(r, "profileID"), kind, chi.URLParam(r, "id"))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpjson.Write(w, status, map[string]any{"created": created, "favorite": fav})
}

func (h *ProfilesHandler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, chi.URLParam(r, "kind"))
	if !ok {
		return
	}
	if err := h.favorites.Remove(r.Context(), bearerToken(r), chi.URLParam(r, "profileID"), kind, chi.URLParam(r, "id")); err != nil {
		writeErrLogged(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfilesHandler) listProgress(w http.ResponseWriter, r *http.Request) {
	list, err := h.progress.List(r.Context(), bearerToken(r), chi.URLParam(r, "profileID"))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

func (h *ProfilesHandler) recordProgress(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, chi.URLParam(r, "kind"))
	if !ok {
		return
	}
	var req app.RecordProgressRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.progress.Record(r.Context(), bearerToken(r), chi.URLParam(r, "profileID"), kind, chi.URLParam(r, "id"), req.Time, req.EpisodeID)
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *ProfilesHandler) removeProgress(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, chi.URLParam(r, "kind"))
	if !ok {
		return
	}
	if err := h.progress.Remove(r.Context(), bearerToken(r), chi.URLParam(r, "profileID"), kind, chi.URLParam(r, "id")); err != nil {
		writeErrLogged(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
