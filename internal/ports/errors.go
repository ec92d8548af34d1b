package ports

import "errors"

var ErrNotFound = errors.New("not found")

var ErrConflict = errors.New("conflict")

// Erreurs amont. ErrUpstreamTimeout est aussi un ErrUpstreamUnreachable
// (voir UpstreamTimeoutError) pour les appelants qui ne distinguent pas.
var (
	ErrUpstreamUnreachable  = errors.New("upstream unreachable")
	ErrUpstreamTimeout      = errors.New("upstream timeout")
	ErrUpstreamRejected     = errors.New("upstream rejected request")
	ErrUpstreamDecodeFailed = errors.New("upstream response decode failed")
)

type upstreamTimeout struct{ err error }

func (e upstreamTimeout) Error() string { return ErrUpstreamTimeout.Error() + ": " + e.err.Error() }

func (e upstreamTimeout) Is(target error) bool {
	return target == ErrUpstreamTimeout || target == ErrUpstreamUnreachable
}

func (e upstreamTimeout) Unwrap() error { return e.err }

// UpstreamTimeoutError enveloppe err pour qu'il matche ErrUpstreamTimeout et ErrUpstreamUnreachable.
func UpstreamTimeoutError(err error) error {
	return upstreamTimeout{err: err}
}

// Erreurs métier remontées jusqu'à la frontière HTTP.
var (
	ErrAuthInvalid      = errors.New("invalid or unknown session token")
	ErrAccountNotFound  = errors.New("upstream account not found")
	ErrProfileNotOwned  = errors.New("profile does not belong to session")
	ErrMissingEpisodeID = errors.New("episode id is required for series")
	ErrUnknownEpisodeID = errors.New("episode id not found in series")
	ErrStoreFailure     = errors.New("store failure")
)
