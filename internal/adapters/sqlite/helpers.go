package sqlite

import (
	"database/sql"
	"strings"
	"time"
)

// isUniqueViolation détecte une violation d'unicité sur la table donnée.
// modernc.org/sqlite retourne une erreur texte du type:
// "constraint failed: UNIQUE constraint failed: favorites.profile_id, ... (2067)"
func isUniqueViolation(err error, table string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, table+".")
}

// timeLayout est à largeur fixe: l'ordre lexical des colonnes TEXT suit
// l'ordre chronologique, y compris sous la seconde.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
