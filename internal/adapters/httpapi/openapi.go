package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/httpjson"
)

// handleOpenAPI renvoie une description OpenAPI des routes exposées.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, openAPIDocument())
}

func openAPIDocument() map[string]any {
	ref := func(name string) map[string]any {
		return map[string]any{"$ref": "#/components/schemas/" + name}
	}
	arrayOf := func(name string) map[string]any {
		return map[string]any{"type": "array", "items": ref(name)}
	}
	jsonBody := func(schema map[string]any) map[string]any {
		return map[string]any{
			"application/json": map[string]any{"schema": schema},
		}
	}
	ok := func(schema map[string]any) map[string]any {
		return map[string]any{"description": "OK", "content": jsonBody(schema)}
	}
	jsonErr := map[string]any{"description": "Error", "content": jsonBody(ref("Error"))}
	noContent := map[string]any{"description": "No Content"}
	bearer := []any{map[string]any{"bearerAuth": []any{}}}

	// op construit une opération authentifiée avec les erreurs communes.
	op := func(responses map[string]any, body map[string]any) map[string]any {
		for _, code := range []string{"401", "403", "500"} {
			responses[code] = jsonErr
		}
		o := map[string]any{"security": bearer, "responses": responses}
		if body != nil {
			o["requestBody"] = map[string]any{"required": true, "content": jsonBody(body)}
		}
		return o
	}
	str := map[string]any{"type": "string"}
	integer := map[string]any{"type": "integer", "format": "int64"}
	number := map[string]any{"type": "number", "format": "double"}
	dateTime := map[string]any{"type": "string", "format": "date-time"}
	kind := ref("Kind")

	schemas := map[string]any{
		"OpenAPIDocument": map[string]any{"type": "object", "additionalProperties": true},
		"Error": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"error":   map[string]any{"type": "string", "description": "Code stable (auth_invalid, profile_not_owned, ...)."},
				"message": str,
			},
			"required": []any{"error"},
		},
		"Kind":     map[string]any{"type": "string", "enum": []any{"live", "movie", "series"}},
		"HomeKind": map[string]any{"type": "string", "enum": []any{"top_movie", "top_series", "movie", "series"}},
		"LoginRequest": map[string]any{
			"type":       "object",
			"properties": map[string]any{"server": str, "username": str, "password": str},
			"required":   []any{"server", "username", "password"},
		},
		"LoginResult": map[string]any{
			"type":       "object",
			"properties": map[string]any{"token": str, "created": map[string]any{"type": "boolean"}},
			"required":   []any{"token"},
		},
		"UserInfo": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"auth": integer, "status": str, "isTrial": integer, "expDate": integer,
				"createdAt": integer, "activeCons": integer, "maxConnections": integer,
				"refreshedAt": dateTime,
			},
		},
		"CatalogItem": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": str, "name": str, "icon": str, "categoryId": str,
				"added": integer, "rating": number, "episodeId": str, "containerExtension": str,
			},
			"required": []any{"id", "name"},
		},
		"Category": map[string]any{
			"type":       "object",
			"properties": map[string]any{"id": str, "name": str},
		},
		"Detail": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"kind":   kind,
				"epg":    map[string]any{"type": "array", "items": map[string]any{"type": "object", "additionalProperties": true}},
				"movie":  map[string]any{"type": "object", "additionalProperties": true},
				"series": map[string]any{"type": "object", "additionalProperties": true},
			},
			"required": []any{"kind"},
		},
		"StreamLink": map[string]any{
			"type":       "object",
			"properties": map[string]any{"url": str},
		},
		"CreateProfileRequest": map[string]any{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string", "maxLength": 64}},
			"required":   []any{"name"},
		},
		"Profile": map[string]any{
			"type":       "object",
			"properties": map[string]any{"id": str, "name": str, "createdAt": dateTime},
		},
		"Favorite": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": str, "kind": kind, "valueId": str, "name": str, "icon": str, "createdAt": dateTime,
			},
		},
		"FavoriteResult": map[string]any{
			"type":       "object",
			"properties": map[string]any{"created": map[string]any{"type": "boolean"}, "favorite": ref("Favorite")},
		},
		"Favorites": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"live": arrayOf("Favorite"), "movies": arrayOf("Favorite"), "series": arrayOf("Favorite"),
			},
		},
		"RecordProgressRequest": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"time":      map[string]any{"type": "number", "minimum": 0},
				"episodeId": map[string]any{"type": "string", "description": "Obligatoire pour une série."},
			},
			"required": []any{"time"},
		},
		"Progress": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": str, "kind": kind, "valueId": str, "name": str, "icon": str,
				"time": number, "episodeId": str, "containerExtension": str, "touchedAt": dateTime,
			},
		},
		"HomeEntry": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"kind": ref("HomeKind"), "valueId": str, "name": str, "icon": str,
			},
		},
		"Home": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"top": arrayOf("HomeEntry"), "movies": arrayOf("HomeEntry"), "series": arrayOf("HomeEntry"),
			},
		},
	}

	catalogItemPath := map[string]any{
		"get": op(map[string]any{"200": ok(ref("Detail")), "404": jsonErr, "502": jsonErr, "504": jsonErr}, nil),
	}

	paths := map[string]any{
		"/api/v1/health": map[string]any{
			"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}, "503": map[string]any{"description": "Degraded"}}},
		},
		"/api/v1/version": map[string]any{
			"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
		},
		"/api/v1/openapi.json": map[string]any{
			"get": map[string]any{"responses": map[string]any{"200": ok(ref("OpenAPIDocument"))}},
		},
		"/api/v1/events": map[string]any{
			"get": map[string]any{
				"description": "Flux SSE des événements de la session (token en Bearer ou ?token=).",
				"responses":   map[string]any{"200": map[string]any{"description": "SSE"}, "401": jsonErr},
			},
		},
		"/api/v1/login": map[string]any{
			"post": map[string]any{
				"requestBody": map[string]any{"required": true, "content": jsonBody(ref("LoginRequest"))},
				"responses": map[string]any{
					"200": ok(ref("LoginResult")), "201": ok(ref("LoginResult")),
					"400": jsonErr, "403": jsonErr, "502": jsonErr, "504": jsonErr,
				},
			},
		},
		"/api/v1/logoff": map[string]any{
			"post": op(map[string]any{"204": noContent}, nil),
		},
		"/api/v1/info": map[string]any{
			"get": op(map[string]any{"200": ok(ref("UserInfo")), "502": jsonErr}, nil),
		},
		"/api/v1/catalog/{kind}": map[string]any{
			"get": op(map[string]any{"200": ok(arrayOf("CatalogItem")), "400": jsonErr, "502": jsonErr, "504": jsonErr}, nil),
		},
		"/api/v1/catalog/{kind}/{id}": catalogItemPath,
		"/api/v1/categories/{kind}": map[string]any{
			"get": op(map[string]any{"200": ok(arrayOf("Category")), "400": jsonErr, "502": jsonErr}, nil),
		},
		"/api/v1/link/{kind}/{id}/{ext}": map[string]any{
			"get": op(map[string]any{"200": ok(ref("StreamLink")), "400": jsonErr}, nil),
		},
		"/api/v1/profiles": map[string]any{
			"get":  op(map[string]any{"200": ok(arrayOf("Profile"))}, nil),
			"post": op(map[string]any{"200": ok(ref("Profile")), "201": ok(ref("Profile")), "400": jsonErr}, ref("CreateProfileRequest")),
		},
		"/api/v1/profiles/{profileID}": map[string]any{
			"delete": op(map[string]any{"204": noContent}, nil),
		},
		"/api/v1/profiles/{profileID}/favorites": map[string]any{
			"get": op(map[string]any{"200": ok(ref("Favorites"))}, nil),
		},
		"/api/v1/profiles/{profileID}/favorites/{kind}/{id}": map[string]any{
			"put":    op(map[string]any{"200": ok(ref("FavoriteResult")), "201": ok(ref("FavoriteResult")), "404": jsonErr, "502": jsonErr}, nil),
			"delete": op(map[string]any{"204": noContent, "404": jsonErr}, nil),
		},
		"/api/v1/profiles/{profileID}/progress": map[string]any{
			"get": op(map[string]any{"200": ok(arrayOf("Progress"))}, nil),
		},
		"/api/v1/profiles/{profileID}/progress/{kind}/{id}": map[string]any{
			"put":    op(map[string]any{"200": ok(ref("Progress")), "400": jsonErr, "404": jsonErr, "502": jsonErr}, ref("RecordProgressRequest")),
			"delete": op(map[string]any{"204": noContent, "404": jsonErr}, nil),
		},
		"/api/v1/home": map[string]any{
			"get": op(map[string]any{"200": ok(ref("Home"))}, nil),
		},
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Xtream Companion API",
			"version": "v1",
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]any{"type": "http", "scheme": "bearer"},
			},
			"schemas": schemas,
		},
		"paths": paths,
	}
}
