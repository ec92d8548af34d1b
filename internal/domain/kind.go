package domain

import (
	"errors"
	"strings"
)

var ErrInvalidKind = errors.New("invalid content kind")

// Kind identifie un type de contenu du catalogue amont.
type Kind string

const (
	KindLive   Kind = "live"
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ParseKind accepte aussi l'ancienne orthographe "serie".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live":
		return KindLive, nil
	case "movie", "vod":
		return KindMovie, nil
	case "series", "serie":
		return KindSeries, nil
	default:
		return "", ErrInvalidKind
	}
}

// Watchable: seuls les films et séries ont une position de lecture.
func (k Kind) Watchable() bool {
	return k == KindMovie || k == KindSeries
}
