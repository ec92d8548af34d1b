package xtream

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
)

// IDType est le nom du paramètre d'identifiant attendu par l'amont.
type IDType string

const (
	LiveID     IDType = "stream_id"
	MovieID    IDType = "vod_id"
	SeriesID   IDType = "series_id"
	CategoryID IDType = "category_id"
)

// ID est un identifiant typé; Value peut être un entier ou une chaîne opaque.
type ID struct {
	Type  IDType
	Value string
}

// Params décrit une requête player_api: action optionnelle + identifiant optionnel.
type Params struct {
	Action string
	ID     *ID
}

func WithID(t IDType, value string) *ID {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &ID{Type: t, Value: strings.TrimSpace(value)}
}

// BuildURL fusionne identifiants et paramètres dans l'URL du serveur stockée.
// Les paramètres déjà présents dans l'URL sont conservés.
func BuildURL(creds domain.Credentials, p Params) (string, error) {
	u, err := url.Parse(creds.Server)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	q := u.Query()
	q.Set("username", creds.Username)
	q.Set("password", creds.Password)
	if p.Action != "" {
		q.Set("action", p.Action)
	}
	if p.ID != nil {
		q.Set(string(p.ID.Type), p.ID.Value)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// StreamURL construit le lien de lecture direct: {origine}/{type}/{user}/{pass}/{id}.{ext}
func StreamURL(creds domain.Credentials, kind domain.Kind, id, ext string) (string, error) {
	u, err := url.Parse(creds.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid server url %q", creds.Server)
	}
	origin := u.Scheme + "://" + u.Host
	return fmt.Sprintf("%s/%s/%s/%s/%s.%s",
		origin,
		string(kind),
		url.PathEscape(creds.Username),
		url.PathEscape(creds.Password),
		url.PathEscape(id),
		url.PathEscape(strings.TrimPrefix(ext, ".")),
	), nil
}
