package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrAuthInvalid, "auth_invalid"},
		{ErrAccountNotFound, "account_not_found"},
		{ErrProfileNotOwned, "profile_not_owned"},
		{ErrMissingEpisodeID, "missing_episode_id"},
		{ErrUnknownEpisodeID, "unknown_episode_id"},
		{fmt.Errorf("x: %w", domain.ErrInvalidKind), "invalid_kind"},
		{ErrNotFound, "not_found"},
		{ports.UpstreamTimeoutError(errors.New("deadline")), "upstream_timeout"},
		{fmt.Errorf("%w: refused", ports.ErrUpstreamUnreachable), "upstream_unreachable"},
		{fmt.Errorf("%w: 500", ports.ErrUpstreamRejected), "upstream_rejected"},
		{fmt.Errorf("%w: bad", ports.ErrUpstreamDecodeFailed), "upstream_decode_failed"},
		{storeErr(errors.New("disk I/O error")), "store_failure"},
		{invalidRequest("bad"), "invalid_request"},
		{errors.New("boom"), "internal"},
	}
	for _, c := range cases {
		if got := ErrorCode(c.err); got != c.want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestStoreErrKeepsSentinels(t *testing.T) {
	if storeErr(ErrNotFound) != ErrNotFound || storeErr(ErrConflict) != ErrConflict {
		t.Fatalf("not found / conflict must pass through unchanged")
	}
	err := storeErr(errors.New("locked"))
	if !errors.Is(err, ErrStoreFailure) {
		t.Fatalf("expected ErrStoreFailure, got %v", err)
	}
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != "store_failure" {
		t.Fatalf("expected CodedError store_failure, got %#v", err)
	}
}
