package api

import (
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/google/uuid"
	"github.com/rpupo63/collage-backend/auth"
	"github.com/rpupo63/collage-backend/config"
	"github.com/rpupo63/collage-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

type authMiddleware struct {
	responder Responder
	logger    zerolog.Logger
	verifier  auth.Verifier
	limiter   *authLimiter
}

func newAuthMiddleware(c map[string]string) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()

	secret := config.GetString(c, "ADMIN_JWT_SECRET", "")
	if secret == "" {
		logger.Warn().Msg("ADMIN_JWT_SECRET is not set, admin endpoints will reject every request")
	}

	m := authMiddleware{
		responder: NewResponder(logger),
		logger:    logger,
		verifier:  auth.NewVerifier(secret),
	}
	if maxFailures := config.GetInt(c, "AUTH_MAX_FAILURES", 10); maxFailures > 0 {
		window := config.GetSeconds(c, "AUTH_FAILURE_WINDOW_SECONDS", 15*time.Minute)
		m.limiter = newAuthLimiter(maxFailures, window)
	}
	return m
}

// checkAdmin verifies the bearer token of r. A rate-limited client gets a
// 429 error, every other failure a 401.
func (m authMiddleware) checkAdmin(r *http.Request) (*auth.Claims, error) {
	ip := clientIP(r)
	if m.limiter != nil && !m.limiter.Check(ip) {
		return nil, errs.NewTooManyRequestsError("too many failed authentication attempts")
	}

	claims, err := m.verifier.VerifyHeader(r.Header.Get("Authorization"))
	if err != nil {
		if m.limiter != nil {
			m.limiter.Record(ip)
		}
		m.logger.Warn().Err(err).Str("ip", ip).Str("path", r.URL.Path).Msg("Admin authentication failed")
		return nil, errs.NewAuthError(err)
	}
	return claims, nil
}

func (m authMiddleware) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.checkAdmin(r)
		if err != nil {
			m.responder.WriteError(w, err)
			return
		}

		updatedReq := r.WithContext(ctxWithAdmin(r.Context(), claims))
		next.ServeHTTP(w, updatedReq)
	})
}

// clientIP keys the auth limiter. Inside Lambda the API Gateway source IP
// wins; otherwise the connection address is used, which only reflects
// X-Forwarded-For when TRUST_PROXY_HEADERS enabled middleware.RealIP.
func clientIP(r *http.Request) string {
	if gwCtx, ok := core.GetAPIGatewayContextFromContext(r.Context()); ok && gwCtx.Identity.SourceIP != "" {
		return gwCtx.Identity.SourceIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestIDMiddleware propagates X-Request-ID or assigns a fresh one
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctxWithRequestID(r.Context(), requestID)))
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("requestID", ctxGetRequestID(r.Context())).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				if !srw.wroteHeader {
					NewResponder(log.Logger).WriteError(srw, errs.NewInternalError("Internal Server Error"))
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status >= http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("requestID", ctxGetRequestID(r.Context())).
				Int("status", srw.status).
				Msg("5xx error response")
		}
	})
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	colorLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger().Level(log.Logger.GetLevel())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		duration := time.Since(start)

		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = colorLogger.Error()
		case srw.status >= 400:
			logEvent = colorLogger.Warn()
		default:
			logEvent = colorLogger.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr).
			Str("requestID", ctxGetRequestID(r.Context())).
			Msg("HTTP Request")
	})
}
