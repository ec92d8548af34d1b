package app

import (
	"errors"
	"fmt"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

var (
	ErrNotFound         = ports.ErrNotFound
	ErrConflict         = ports.ErrConflict
	ErrAuthInvalid      = ports.ErrAuthInvalid
	ErrAccountNotFound  = ports.ErrAccountNotFound
	ErrProfileNotOwned  = ports.ErrProfileNotOwned
	ErrMissingEpisodeID = ports.ErrMissingEpisodeID
	ErrUnknownEpisodeID = ports.ErrUnknownEpisodeID
	ErrStoreFailure     = ports.ErrStoreFailure

	ErrInvalidRequest = errors.New("invalid request")
)

// CodedError porte un code d'erreur stable, renvoyé tel quel au client
// dans le champ "error".
//
// Exemples de codes: invalid_request, store_failure.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

func invalidRequest(msg string) error {
	return &CodedError{Code: "invalid_request", Message: msg, Err: ErrInvalidRequest}
}

// storeErr laisse passer ErrNotFound/ErrConflict et enveloppe le reste en store_failure.
func storeErr(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	return &CodedError{Code: "store_failure", Message: "store", Err: fmt.Errorf("%w: %w", ErrStoreFailure, err)}
}

// ErrorCode renvoie le code stable d'une erreur remontée par les services.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthInvalid):
		return "auth_invalid"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrProfileNotOwned):
		return "profile_not_owned"
	case errors.Is(err, ErrMissingEpisodeID):
		return "missing_episode_id"
	case errors.Is(err, ErrUnknownEpisodeID):
		return "unknown_episode_id"
	case errors.Is(err, domain.ErrInvalidKind):
		return "invalid_kind"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ports.ErrUpstreamTimeout):
		return "upstream_timeout"
	case errors.Is(err, ports.ErrUpstreamUnreachable):
		return "upstream_unreachable"
	case errors.Is(err, ports.ErrUpstreamRejected):
		return "upstream_rejected"
	case errors.Is(err, ports.ErrUpstreamDecodeFailed):
		return "upstream_decode_failed"
	case errors.Is(err, ErrStoreFailure):
		return "store_failure"
	}
	var coded *CodedError
	if errors.As(err, &coded) && coded.Code != "" {
		return coded.Code
	}
	return "internal"
}
