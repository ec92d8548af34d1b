package app

import (
	"github.com/goccy/go-json"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

const (
	TopicSessionCreated  = "session.created"
	TopicSessionDeleted  = "session.deleted"
	TopicFavoriteAdded   = "favorite.added"
	TopicFavoriteRemoved = "favorite.removed"
	TopicProgressRecord  = "progress.recorded"
	TopicHomeRebuilt     = "home.rebuilt"
)

// EventPayload est le corps JSON commun à tous les événements du bus.
// SessionID permet de filtrer le flux par session côté SSE.
type EventPayload struct {
	SessionID string `json:"sessionId"`
	ProfileID string `json:"profileId,omitempty"`
	Kind      string `json:"kind,omitempty"`
	ValueID   string `json:"valueId,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func publish(bus ports.EventBus, topic string, payload EventPayload) {
	if bus == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	bus.Publish(topic, b)
}

// EventSessionID extrait sessionId d'un payload, "" si absent ou illisible.
func EventSessionID(payload []byte) string {
	var p struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return ""
	}
	return p.SessionID
}
