package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/server/middleware"
	"github.com/kbukum/chatstream/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.ReadTimeout != 15 || cfg.IdleTimeout != 60 || cfg.ShutdownTimeout != 5 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.WriteTimeout != 0 {
		t.Errorf("write timeout must default to 0 for streaming, got %d", cfg.WriteTimeout)
	}
	if cfg.MaxBodySize != "1MB" || len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Port: 8080}, false},
		{"port too large", Config{Port: 70000}, true},
		{"negative read timeout", Config{ReadTimeout: -1}, true},
		{"negative write timeout", Config{WriteTimeout: -1}, true},
		{"negative idle timeout", Config{IdleTimeout: -1}, true},
		{"negative shutdown timeout", Config{ShutdownTimeout: -1}, true},
		{"negative rate limit", Config{RateLimit: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	verr := validation.New().Required("text", "").Validate()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", verr, http.StatusBadRequest},
		{"invalid input", &llm.Error{Kind: llm.KindInvalidInput}, http.StatusBadRequest},
		{"concurrent", llm.ErrConcurrentExchange, http.StatusConflict},
		{"upstream status", &llm.Error{Kind: llm.KindHTTPStatus, StatusCode: 500}, http.StatusBadGateway},
		{"empty body", &llm.Error{Kind: llm.KindEmptyBody}, http.StatusBadGateway},
		{"transport", &llm.Error{Kind: llm.KindTransport, Err: errors.New("refused")}, http.StatusBadGateway},
		{"canceled", &llm.Error{Kind: llm.KindTransport, Err: context.Canceled}, http.StatusGatewayTimeout},
		{"deadline", fmt.Errorf("x: %w", &llm.Error{Kind: llm.KindTransport, Err: context.DeadlineExceeded}), http.StatusGatewayTimeout},
		{"not open", llm.ErrNotOpenForWrite, http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind string
		upstream int
		fields   int
	}{
		{"upstream", &llm.Error{Kind: llm.KindHTTPStatus, StatusCode: 503, Message: "HTTP 503"}, "http_status", 503, 0},
		{"validation", validation.New().Required("text", "").Validate(), "validation", 0, 1},
		{"plain", errors.New("boom"), "internal", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)
			RespondWithError(c, tt.err)

			var resp ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Error.Kind != tt.wantKind || resp.Error.StatusCode != tt.upstream || len(resp.Error.Fields) != tt.fields {
				t.Errorf("unexpected body %s", rr.Body.String())
			}
		})
	}
}

func TestRespondWithPartial(t *testing.T) {
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	RespondWithPartial(c, &llm.Error{Kind: llm.KindTransport, Err: context.Canceled},
		llm.Result{ExchangeID: "x", Content: "He", Fragments: 1, Partial: true})

	if rr.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", rr.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Error.Partial == nil || resp.Error.Partial.Content != "He" {
		t.Errorf("expected partial content, got %s", rr.Body.String())
	}
}

func TestServer_HandlerAppliesMiddleware(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.Nop())
	s.GinEngine().GET("/boom", func(c *gin.Context) { panic("boom") })
	s.GinEngine().GET("/ok", func(c *gin.Context) {
		RespondOK(c, gin.H{"request_id": logger.RequestIDFromContext(c.Request.Context())})
	})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected recovered 500, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))
	var body struct {
		Data map[string]string `json:"data"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	id := rr.Header().Get(middleware.HeaderRequestID)
	if id == "" || body.Data["request_id"] != id {
		t.Errorf("request id not propagated: header %q body %v", id, body.Data)
	}
}

func TestServer_StartStop(t *testing.T) {
	s := New(Config{Host: "127.0.0.1", Port: 0, ShutdownTimeout: 1}, logger.Nop())
	s.GinEngine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	s.Handle("/raw", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "raw")
	}))

	shutdownCalled := make(chan struct{})
	s.RegisterOnShutdown(func() { close(shutdownCalled) })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for path, want := range map[string]string{"/ping": "pong", "/raw": "raw"} {
		resp, err := http.Get("http://" + s.Addr() + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != want {
			t.Errorf("GET %s = %q, want %q", path, body, want)
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	<-shutdownCalled
}

func TestServer_StartBindError(t *testing.T) {
	first := New(Config{Host: "127.0.0.1", Port: 0, ShutdownTimeout: 1}, logger.Nop())
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop(context.Background())

	var port int
	_, _ = fmt.Sscanf(first.Addr()[len("127.0.0.1:"):], "%d", &port)
	second := New(Config{Host: "127.0.0.1", Port: port}, logger.Nop())
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected bind error on used port")
	}
}
