package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/m3rciful/polbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	requestIDHeader   = "X-Request-Id"
	maxUpdateBytes    = 1 << 20
	aliveText         = "polbot is alive"
)

// UpdateProcessor consumes one decoded update. *tele.Bot satisfies it.
type UpdateProcessor interface {
	ProcessUpdate(u tele.Update)
}

// ServerOptions configures the HTTP surface.
type ServerOptions struct {
	// WebhookPath mounts the update receiver; empty disables it.
	WebhookPath string
	SecretToken string
	Processor   UpdateProcessor
}

// NewHTTPHandler serves the liveness endpoints and, when configured, the
// webhook receiver. The receiver acknowledges every well-formed update with
// {"ok":true} even when handling it produced no reply.
func NewHTTPHandler(opts ServerOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(accessLog)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, aliveText)
	})
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "pong")
	})
	if opts.WebhookPath != "" && opts.Processor != nil {
		r.Post(opts.WebhookPath, webhookHandler(opts))
	}
	return r
}

func webhookHandler(opts ServerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if opts.SecretToken != "" && req.Header.Get(secretTokenHeader) != opts.SecretToken {
			logger.HTTP.Warn("webhook secret mismatch",
				slog.String("event", "webhook.reject"),
				slog.String("rid", chimw.GetReqID(req.Context())),
			)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false})
			return
		}

		body, err := io.ReadAll(io.LimitReader(req.Body, maxUpdateBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false})
			return
		}
		var upd tele.Update
		if err := json.Unmarshal(body, &upd); err != nil {
			logger.HTTP.Warn("webhook decode failed",
				slog.String("event", "webhook.decode"),
				slog.String("rid", chimw.GetReqID(req.Context())),
				slog.String("err", err.Error()),
			)
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false})
			return
		}

		if upd.Message == nil && upd.Callback == nil {
			logger.HTTP.Debug("webhook update ignored",
				slog.String("event", "webhook.skip"),
				slog.Int("update_id", upd.ID),
			)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

		opts.Processor.ProcessUpdate(upd)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// requestID keeps an inbound X-Request-Id or assigns a fresh one and stores
// it where chi's GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithRID(r.Context(), id)
		ctx = context.WithValue(ctx, chimw.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.HTTP.Debug("request",
			slog.String("event", "http.request"),
			slog.String("rid", chimw.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("http_status", ww.Status()),
			slog.Duration("duration", logger.Took(start)),
		)
	})
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
