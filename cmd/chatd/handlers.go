package main

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/server"
	"github.com/kbukum/chatstream/server/endpoint"
	"github.com/kbukum/chatstream/server/middleware"
	"github.com/kbukum/chatstream/sse"
	"github.com/kbukum/chatstream/util"
	"github.com/kbukum/chatstream/validation"
)

// chatEngine is the subset of *llm.Engine the handlers use.
type chatEngine interface {
	Send(ctx context.Context, text string, onFragment llm.FragmentFunc) (llm.Result, error)
	Cancel() bool
	Reset() error
	Transcript() []llm.Turn
	State() llm.State
	LastError() error
	Config() llm.ProviderConfig
	Dialect() llm.Dialect
}

type handlers struct {
	engine chatEngine
	hub    *sse.Hub
	chat   ChatConfig
	log    *logger.Logger
}

// SendRequest is the body of POST /v1/messages.
type SendRequest struct {
	Text string `json:"text"`
}

// TranscriptResponse is the body of GET /v1/transcript.
type TranscriptResponse struct {
	State     string     `json:"state"`
	Model     string     `json:"model"`
	Dialect   string     `json:"dialect"`
	LastError string     `json:"last_error,omitempty"`
	Turns     []llm.Turn `json:"turns"`
}

const maxClientIDLength = 64

var streamTypes = []string{sse.EventTypeFragment, sse.EventTypeState, sse.EventTypeError}

func (h *handlers) register(ctx context.Context, r gin.IRouter, cfg *Config, mw ...gin.HandlerFunc) {
	api := r.Group("/v1", mw...)

	send := []gin.HandlerFunc{h.sendMessage}
	if cfg.Server.RateLimit > 0 {
		send = append([]gin.HandlerFunc{middleware.RateLimit(ctx, middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Server.RateLimit,
		})}, send...)
	}
	api.POST("/messages", send...)
	api.POST("/cancel", h.cancel)
	api.POST("/reset", h.reset)
	api.GET("/transcript", h.transcript)
	api.GET("/events", h.events)
	api.GET("/dialects", h.dialects)

	checkers := []observability.HealthChecker{h.engineHealth(), h.streamHealth()}
	r.GET("/health", endpoint.Health(cfg.Name, checkers...))
	r.GET("/ready", endpoint.Readiness(cfg.Name, checkers...))
	r.GET("/alive", endpoint.Liveness(cfg.Name))
	r.GET("/version", endpoint.Version())
}

func (h *handlers) sendMessage(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, &llm.Error{Kind: llm.KindInvalidInput, Message: "invalid JSON body", Err: err})
		return
	}
	if err := validation.New().
		Required("text", strings.TrimSpace(req.Text)).
		MaxLength("text", req.Text, h.chat.MaxMessageLength).
		Validate(); err != nil {
		server.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.chat.ExchangeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.chat.ExchangeTimeout)
		defer cancel()
	}

	res, err := h.engine.Send(ctx, req.Text, nil)
	if err != nil {
		log := h.log.WithContext(c.Request.Context())
		if llm.IsConcurrentExchange(err) {
			log.Debug("send rejected", logger.ErrorFields("send", err))
			server.RespondWithError(c, err)
			return
		}
		sse.PublishError(h.hub, res.ExchangeID, err)
		log.WithError(err).Warn("exchange failed", logger.Fields(logger.FieldExchangeID, res.ExchangeID))
		if res.Partial {
			server.RespondWithPartial(c, err, res)
			return
		}
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, res)
}

func (h *handlers) cancel(c *gin.Context) {
	server.RespondOK(c, gin.H{"canceled": h.engine.Cancel()})
}

func (h *handlers) reset(c *gin.Context) {
	if err := h.engine.Reset(); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *handlers) transcript(c *gin.Context) {
	cfg := h.engine.Config()
	resp := TranscriptResponse{
		State:   h.engine.State().String(),
		Model:   cfg.Model,
		Dialect: h.engine.Dialect().Name(),
		Turns:   h.engine.Transcript(),
	}
	if err := h.engine.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	server.RespondOK(c, resp)
}

func (h *handlers) events(c *gin.Context) {
	var types []string
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}
	clientID := c.Query("client_id")
	v := validation.New().
		MaxLength("client_id", clientID, maxClientIDLength).
		Custom(clientID == util.SanitizeLine(clientID) && !strings.ContainsAny(clientID, " ,"),
			"client_id", "must not contain spaces, commas or control characters")
	for _, t := range types {
		v.OneOf("types", t, streamTypes)
	}
	if err := v.Validate(); err != nil {
		server.RespondWithError(c, err)
		return
	}

	if clientID == "" {
		clientID = uuid.NewString()
	}
	sse.ServeSSE(h.hub, c.Writer, c.Request, clientID, sse.WithTypes(types...))
}

func (h *handlers) dialects(c *gin.Context) {
	server.RespondOK(c, gin.H{"dialects": llm.Dialects()})
}
