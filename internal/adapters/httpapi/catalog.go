package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/app"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/httpjson"
)

type CatalogHandler struct {
	catalog *app.CatalogService
}

func NewCatalogHandler(catalog *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) Routes(r chi.Router) {
	r.Get("/catalog/{kind}", h.list)
	r.Get("/catalog/{kind}/{id}", h.detail)
	r.Get("/categories/{kind}", h.categories)
	r.Get("/link/{kind}/{id}/{ext}", h.link)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, chi.URLParam(r, "kind"))
	if !ok {
		return
	}
	items, err := h.catalog.ListCatalog(r.Context(), bearerToken(r), kind, r.URL.Query().Get("category_id"))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, items)
}

func (h *CatalogHandler) detail(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, chi.URLParam(r, "kind"))
	if !ok {
		return
	}
	d, err := h.catalog.ItemDetail(r.Context(), bearerToken(r), kind, chi.URLParam(r, "id"))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}

func (h *CatalogHandler) categories(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, chi.URLParam(r, "kind"))
	if !ok {
		return
	}
	cats, err := h.catalog.Categories(r.Context(), bearerToken(r), kind)
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, cats)
}

func (h *CatalogHandler) link(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, chi.URLParam(r, "kind"))
	if !ok {
		return
	}
	link, err := h.catalog.StreamURL(r.Context(), bearerToken(r), kind, chi.URLParam(r, "id"), chi.URLParam(r, "ext"))
	if err != nil {
		writeErrLogged(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"url": link})
}
