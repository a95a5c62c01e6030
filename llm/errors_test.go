package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/chatstream/httpclient"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindTransport, "transport"},
		{KindHTTPStatus, "http_status"},
		{KindEmptyBody, "empty_body"},
		{KindDecode, "decode"},
		{KindConcurrentExchange, "concurrent_exchange"},
		{KindNotOpenForWrite, "not_open_for_write"},
		{KindInvalidInput, "invalid_input"},
		{ErrorKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	withStatus := &Error{Kind: KindHTTPStatus, StatusCode: 503, Message: "HTTP 503"}
	if got := withStatus.Error(); got != "llm: http_status (HTTP 503): HTTP 503" {
		t.Errorf("unexpected message %q", got)
	}
	plain := &Error{Kind: KindTransport, Message: "connection refused"}
	if got := plain.Error(); got != "llm: transport: connection refused" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindTransport, Message: "x", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if !IsTransport(err) {
		t.Error("expected transport kind through wrapping")
	}
}

func TestClassifyTransportError(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name       string
		ctx        context.Context
		err        error
		wantKind   ErrorKind
		wantStatus int
	}{
		{"already classified", context.Background(), ErrConcurrentExchange, KindConcurrentExchange, 0},
		{"server status", context.Background(), httpclient.ClassifyStatusCode(502, nil), KindHTTPStatus, 502},
		{"auth status", context.Background(), httpclient.ClassifyStatusCode(401, nil), KindHTTPStatus, 401},
		{"not found", context.Background(), httpclient.ClassifyStatusCode(404, nil), KindHTTPStatus, 404},
		{"empty body", context.Background(), httpclient.NewEmptyBodyError(200), KindEmptyBody, 200},
		{"connection", context.Background(), httpclient.NewConnectionError(errors.New("refused")), KindTransport, 0},
		{"read failure", context.Background(), io.ErrUnexpectedEOF, KindTransport, 0},
		{"canceled context", canceled, httpclient.NewTimeoutError(context.Canceled), KindTransport, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTransportError(tt.ctx, tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", got.StatusCode, tt.wantStatus)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("original error lost from chain: %v", got)
			}
		})
	}
}

func TestClassifyTransportError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", httpclient.ClassifyStatusCode(401, nil), "provider rejected the credentials"},
		{"not found", httpclient.ClassifyStatusCode(404, nil), "endpoint or model not found"},
		{"rate limit", httpclient.ClassifyStatusCode(429, nil), "provider rate limit exceeded"},
		{"server with body", httpclient.ClassifyStatusCode(500, []byte(" {\"error\":\"model crashed\"}\n")), `provider error: {"error":"model crashed"}`},
		{"other 4xx", httpclient.ClassifyStatusCode(422, nil), "HTTP 422"},
		{"timeout", httpclient.NewTimeoutError(errors.New("awaiting headers")), "provider timed out: awaiting headers"},
		{"connection", httpclient.NewConnectionError(errors.New("refused")), "provider unreachable: refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTransportError(context.Background(), tt.err).Message; got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyTransportError_CanceledMentionsAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := classifyTransportError(ctx, errors.New("read tcp: use of closed connection"))
	if !errors.Is(got, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", got)
	}
	if !strings.Contains(got.Error(), "aborted") {
		t.Errorf("unexpected message %q", got.Error())
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"transport", &Error{Kind: KindTransport}, IsTransport},
		{"http status", &Error{Kind: KindHTTPStatus}, IsHTTPStatus},
		{"empty body", &Error{Kind: KindEmptyBody}, IsEmptyBody},
		{"decode", NewDecodeError("{", errors.New("eof")), IsDecode},
		{"concurrent", ErrConcurrentExchange, IsConcurrentExchange},
		{"not open", ErrNotOpenForWrite, IsNotOpenForWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate should match %v", tt.err)
			}
			if tt.check(errors.New("plain")) {
				t.Error("predicate should not match a plain error")
			}
			if tt.check(nil) {
				t.Error("predicate should not match nil")
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("plain error has no kind")
	}
	k, ok := KindOf(fmt.Errorf("ctx: %w", ErrInvalidRole))
	if !ok || k != KindInvalidInput {
		t.Errorf("KindOf = %v, %v", k, ok)
	}
}

func TestStatusCode(t *testing.T) {
	if got := StatusCode(&Error{Kind: KindHTTPStatus, StatusCode: 429}); got != 429 {
		t.Errorf("StatusCode = %d", got)
	}
	if got := StatusCode(errors.New("plain")); got != 0 {
		t.Errorf("StatusCode(plain) = %d", got)
	}
}

func TestNewDecodeError_TruncatesLine(t *testing.T) {
	err := NewDecodeError(strings.Repeat("x", 500), errors.New("bad"))
	if len(err.Message) > 160 {
		t.Errorf("message not truncated: %d bytes", len(err.Message))
	}
	if !strings.HasSuffix(err.Message, `..."`) {
		t.Errorf("expected ellipsis, got %q", err.Message)
	}
}
