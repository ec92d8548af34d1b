// Package httpjson regroupe les helpers de réponse JSON de l'API.
package httpjson

import (
	"net/http"

	"github.com/goccy/go-json"
)

// ErrorBody est le corps de toutes les réponses d'erreur.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError écrit {"error": msg}, pour les erreurs sans code stable.
func WriteError(w http.ResponseWriter, status int, msg string) {
	Write(w, status, ErrorBody{Error: msg})
}

// WriteCoded écrit {"error": code, "message": msg}.
func WriteCoded(w http.ResponseWriter, status int, code, msg string) {
	Write(w, status, ErrorBody{Error: code, Message: msg})
}
