package domain

import "time"

type Session struct {
	ID        string
	Token     string
	CreatedAt time.Time
}

// Credentials identifie un compte amont. Server est déjà normalisé
// (chemin par défaut ajouté) au moment où il est persisté.
type Credentials struct {
	Server   string
	Username string
	Password string
}

// Account regroupe une session et ses identifiants, pour les traitements batch.
type Account struct {
	Session     Session
	Credentials Credentials
}

// UserInfo est un cache de l'état du compte côté amont. Tous les champs sont optionnels.
type UserInfo struct {
	Auth           *int64
	Status         string
	IsTrial        *int64
	ExpDate        *int64
	CreatedAt      *int64
	ActiveCons     *int64
	MaxConnections *int64
	RefreshedAt    time.Time
}

// Authenticated: l'amont considère le compte valide uniquement si auth > 0.
func (u UserInfo) Authenticated() bool {
	return u.Auth != nil && *u.Auth > 0
}

type Profile struct {
	ID        string
	SessionID string
	Name      string
	CreatedAt time.Time
}
