package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/app"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/buildinfo"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/httpjson"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/metrics"
)

const defaultRequestTimeout = 60 * time.Second

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ping(ctx); err != nil {
			httpjson.Write(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
			return
		}
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
	})
}

// bearerToken lit "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// decode lit le corps JSON puis valide les tags `validate`.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpjson.WriteCoded(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		msg := err.Error()
		if errors.As(err, &verrs) && len(verrs) > 0 {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, strings.ToLower(fe.Field())+": failed "+fe.Tag())
			}
			msg = strings.Join(parts, "; ")
		}
		httpjson.WriteCoded(w, http.StatusBadRequest, "invalid_request", msg)
		return false
	}
	return true
}

func kindParam(w http.ResponseWriter, raw string) (domain.Kind, bool) {
	k, err := domain.ParseKind(raw)
	if err != nil {
		writeErr(w, err)
		return "", false
	}
	return k, true
}

func statusFor(code string) int {
	switch code {
	case "auth_invalid":
		return http.StatusUnauthorized
	case "account_not_found", "profile_not_owned":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "invalid_request", "invalid_kind", "missing_episode_id", "unknown_episode_id":
		return http.StatusBadRequest
	case "upstream_timeout":
		return http.StatusGatewayTimeout
	case "upstream_unreachable", "upstream_rejected", "upstream_decode_failed":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeErr traduit une erreur de service en réponse {"error": code, "message": ...}.
// Les erreurs internes ne fuient pas leur détail.
func writeErr(w http.ResponseWriter, err error) {
	code := app.ErrorCode(err)
	status := statusFor(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	httpjson.WriteCoded(w, status, code, msg)
}

func writeErrLogged(w http.ResponseWriter, r *http.Request, err error) {
	code := app.ErrorCode(err)
	if statusFor(code) >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeErr(w, err)
}
