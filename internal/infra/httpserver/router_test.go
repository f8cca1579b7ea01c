package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appmail "github.com/bryanwahyu/threat-console/internal/application/mail"
	appthreat "github.com/bryanwahyu/threat-console/internal/application/threat"
	dommail "github.com/bryanwahyu/threat-console/internal/domain/mail"
	"github.com/bryanwahyu/threat-console/internal/domain/vendor"
	"github.com/bryanwahyu/threat-console/internal/middleware"
)

type stubCompleter struct {
	reply      string
	err        error
	configured bool
	calls      int
}

func (s *stubCompleter) Complete(context.Context, string) (string, error) {
	s.calls++
	return s.reply, s.err
}
func (s *stubCompleter) Model() string    { return "stub" }
func (s *stubCompleter) Configured() bool { return s.configured }

type stubSender struct {
	err  error
	sent []dommail.SendRequest
}

func (s *stubSender) Send(_ context.Context, req dommail.SendRequest) error {
	s.sent = append(s.sent, req)
	return s.err
}

var liveIDs = appmail.Identifiers{
	ServiceID:        "service_abc123",
	TemplatePassword: "template_pw1",
	TemplateNotice:   "template_nt1",
	PublicKey:        "pk_live_123",
}

func newTestRouter(c *stubCompleter, snd *stubSender, ids appmail.Identifiers, opts Options) http.Handler {
	threatSvc := appthreat.NewService(c)
	mailSvc := &appmail.Service{Sender: snd, IDs: ids, SenderName: "Security Team"}
	return NewRouter(threatSvc, mailSvc, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeRoundTrip(t *testing.T) {
	c := &stubCompleter{configured: true, reply: "THREAT_SCORE: 82\nTHREAT_LEVEL: HIGH\nWeak."}
	h := newTestRouter(c, &stubSender{}, liveIDs, Options{})

	rec := do(t, h, http.MethodPost, "/v1/acme/threat/analyze", `{"mode":"password","text":"hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var got struct {
		Score         int    `json:"score"`
		Level         string `json:"level"`
		Narrative     string `json:"narrative"`
		Subject       string `json:"subject"`
		SecurityScore int    `json:"security_score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Score != 82 || got.Level != "HIGH" || got.Narrative != "Weak." {
		t.Errorf("got %+v", got)
	}
	if got.SecurityScore != 18 {
		t.Errorf("security_score = %d, want 18", got.SecurityScore)
	}
	if got.Subject != "•••••••" {
		t.Errorf("subject = %q, want masked", got.Subject)
	}

	rec = do(t, h, http.MethodGet, "/v1/acme/threat/history", "")
	var hist []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}

	rec = do(t, h, http.MethodGet, "/v1/other/threat/history", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("other tenant history = %s, want []", rec.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		c        *stubCompleter
		body     string
		want     int
		wantKind string
		calls    int
	}{
		{"unconfigured", &stubCompleter{}, `{"mode":"email","text":"hi"}`, http.StatusServiceUnavailable, "configuration", 0},
		{"transport", &stubCompleter{configured: true, err: &vendor.TransportError{Vendor: "completion", StatusCode: 500, Message: "boom"}}, `{"mode":"email","text":"hi"}`, http.StatusBadGateway, "transport", 1},
		{"quota", &stubCompleter{configured: true, err: &vendor.TransportError{Vendor: "completion", StatusCode: 429, Err: vendor.ErrQuotaExceeded}}, `{"mode":"email","text":"hi"}`, http.StatusTooManyRequests, "quota", 1},
		{"blank subject", &stubCompleter{configured: true}, `{"mode":"email","text":"   "}`, http.StatusBadRequest, "validation", 0},
		{"bad mode", &stubCompleter{configured: true}, `{"mode":"sms","text":"hi"}`, http.StatusBadRequest, "validation", 0},
		{"bad json", &stubCompleter{configured: true}, `{"mode":`, http.StatusBadRequest, "validation", 0},
		{"unknown field", &stubCompleter{configured: true}, `{"mode":"email","text":"hi","x":1}`, http.StatusBadRequest, "validation", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(tt.c, &stubSender{}, liveIDs, Options{})
			rec := do(t, h, http.MethodPost, "/v1/acme/threat/analyze", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body=%s)", rec.Code, tt.want, rec.Body.String())
			}
			var body map[string]string
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["kind"] != tt.wantKind {
				t.Errorf("kind = %q, want %q", body["kind"], tt.wantKind)
			}
			if tt.c.calls != tt.calls {
				t.Errorf("completer calls = %d, want %d", tt.c.calls, tt.calls)
			}
		})
	}
}

func TestClassifyInternal(t *testing.T) {
	if status, kind := classify(errors.New("db down")); status != http.StatusInternalServerError || kind != "internal" {
		t.Errorf("classify = %d %s", status, kind)
	}
}

func TestMailSend(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		snd := &stubSender{}
		h := newTestRouter(&stubCompleter{}, snd, liveIDs, Options{})
		rec := do(t, h, http.MethodPost, "/v1/acme/mail/send",
			`{"template_id":"password-hygiene","to_email":"ana@example.com","to_name":"Ana"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		if len(snd.sent) != 1 {
			t.Fatalf("sent = %d, want 1", len(snd.sent))
		}
		if snd.sent[0].VendorTemplateID != "template_pw1" {
			t.Errorf("vendor template = %q", snd.sent[0].VendorTemplateID)
		}
		if !strings.Contains(rec.Body.String(), `"live"`) {
			t.Errorf("body = %s, want live status", rec.Body.String())
		}
	})

	t.Run("simulated", func(t *testing.T) {
		snd := &stubSender{}
		h := newTestRouter(&stubCompleter{}, snd, appmail.Identifiers{}, Options{})
		rec := do(t, h, http.MethodPost, "/v1/acme/mail/send",
			`{"template_id":"report-ready","to_email":"ana@example.com"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		if len(snd.sent) != 0 {
			t.Errorf("simulated send reached the vendor")
		}
		if !strings.Contains(rec.Body.String(), `"simulated"`) {
			t.Errorf("body = %s, want simulated status", rec.Body.String())
		}
	})

	t.Run("vendor error", func(t *testing.T) {
		snd := &stubSender{err: &vendor.TransportError{Vendor: "mail", StatusCode: 400, Message: "The template ID is invalid"}}
		h := newTestRouter(&stubCompleter{}, snd, liveIDs, Options{})
		rec := do(t, h, http.MethodPost, "/v1/acme/mail/send",
			`{"template_id":"report-ready","to_email":"ana@example.com"}`)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "The template ID is invalid") {
			t.Errorf("vendor text missing: %s", rec.Body.String())
		}
	})

	t.Run("bad recipient", func(t *testing.T) {
		h := newTestRouter(&stubCompleter{}, &stubSender{}, liveIDs, Options{})
		rec := do(t, h, http.MethodPost, "/v1/acme/mail/send",
			`{"template_id":"report-ready","to_email":"nobody"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown template", func(t *testing.T) {
		h := newTestRouter(&stubCompleter{}, &stubSender{}, liveIDs, Options{})
		rec := do(t, h, http.MethodPost, "/v1/acme/mail/send",
			`{"template_id":"nope","to_email":"ana@example.com"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestMailPreviewAndStatus(t *testing.T) {
	h := newTestRouter(&stubCompleter{}, &stubSender{}, appmail.Identifiers{}, Options{})

	rec := do(t, h, http.MethodPost, "/v1/acme/mail/preview", `{"template_id":"report-ready","target_name":"<b>Ana</b>"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d body=%s", rec.Code, rec.Body.String())
	}
	var p appmail.Preview
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if strings.Contains(p.HTML, "<b>Ana</b>") {
		t.Errorf("target name was not escaped")
	}

	rec = do(t, h, http.MethodGet, "/v1/acme/mail/status", "")
	var st map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st["live"] != false || st["service_id"] != "not configured" {
		t.Errorf("status = %v", st)
	}

	rec = do(t, h, http.MethodGet, "/v1/acme/mail/templates", "")
	var tpls []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &tpls); err != nil || len(tpls) == 0 {
		t.Errorf("templates = %s err=%v", rec.Body.String(), err)
	}

	rec = do(t, h, http.MethodGet, "/v1/acme/mail/dispatches", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("dispatches = %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouterAuth(t *testing.T) {
	h := newTestRouter(&stubCompleter{}, &stubSender{}, liveIDs, Options{
		APIKeys: map[string]string{"acme": "k-acme"},
	})

	tests := []struct {
		name string
		path string
		key  string
		want int
	}{
		{"no key", "/v1/acme/threat/status", "", http.StatusUnauthorized},
		{"unknown key", "/v1/acme/threat/status", "k-other", http.StatusUnauthorized},
		{"own tenant", "/v1/acme/threat/status", "k-acme", http.StatusOK},
		{"other tenant", "/v1/globex/threat/status", "k-acme", http.StatusForbidden},
		{"health skips auth", "/health", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("Authorization", "Bearer "+tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body=%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRouterRateLimit(t *testing.T) {
	h := newTestRouter(&stubCompleter{}, &stubSender{}, liveIDs, Options{
		Limiter: middleware.NewRateLimiter(1, 1),
	})
	if rec := do(t, h, http.MethodGet, "/v1/acme/threat/status", ""); rec.Code != http.StatusOK {
		t.Fatalf("first: status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/acme/threat/status", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second: status = %d, want 429", rec.Code)
	}
}
