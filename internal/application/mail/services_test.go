package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/threat-console/internal/application"
	domain "github.com/bryanwahyu/threat-console/internal/domain/mail"
	"github.com/bryanwahyu/threat-console/internal/domain/vendor"
)

type fakeSender struct {
	sent []domain.SendRequest
	err  error
}

func (f *fakeSender) Send(_ context.Context, req domain.SendRequest) error {
	f.sent = append(f.sent, req)
	return f.err
}

type fakeLog struct{ saved []*domain.Dispatch }

func (l *fakeLog) Save(_ context.Context, d *domain.Dispatch) error {
	l.saved = append(l.saved, d)
	return nil
}
func (l *fakeLog) ListByTenant(_ context.Context, _ string, _ int) ([]*domain.Dispatch, error) {
	return l.saved, nil
}

var liveIDs = Identifiers{
	ServiceID:        "service_abc123",
	TemplatePassword: "template_pw42",
	TemplateNotice:   "template_nt42",
	PublicKey:        "pk_5xYz",
}

func newService(ids Identifiers, sender *fakeSender) *Service {
	return &Service{
		Sender:         sender,
		IDs:            ids,
		SenderName:     "Threat Console",
		SimulatedDelay: 20 * time.Millisecond,
		Clock:          application.FixedClock{T: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)},
	}
}

func TestSendSimulatedWhenUnconfigured(t *testing.T) {
	sender := &fakeSender{}
	s := newService(Identifiers{}, sender)
	log := &fakeLog{}
	s.Log = log

	start := time.Now()
	res, err := s.Send(context.Background(), "acme", SendCommand{TemplateID: "report-ready", ToEmail: "dana@example.com"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.Status != domain.StatusSimulated {
		t.Errorf("status = %s, want simulated", res.Status)
	}
	if time.Since(start) < s.SimulatedDelay {
		t.Error("simulated send returned before the delay")
	}
	if len(sender.sent) != 0 {
		t.Error("vendor was called in simulated mode")
	}
	if len(log.saved) != 1 || log.saved[0].Status != domain.StatusSimulated {
		t.Errorf("dispatch log = %+v", log.saved)
	}
}

func TestSendSimulatedWithPlaceholders(t *testing.T) {
	sender := &fakeSender{}
	ids := liveIDs
	ids.TemplateNotice = "your_voucher_template_id_here"
	s := newService(ids, sender)

	res, err := s.Send(context.Background(), "acme", SendCommand{TemplateID: "report-ready", ToEmail: "dana@example.com"})
	if err != nil || res.Status != domain.StatusSimulated || len(sender.sent) != 0 {
		t.Errorf("res=%+v err=%v sent=%d", res, err, len(sender.sent))
	}
}

func TestSendSimulatedHonoursContext(t *testing.T) {
	s := newService(Identifiers{}, &fakeSender{})
	s.SimulatedDelay = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Send(ctx, "acme", SendCommand{TemplateID: "report-ready", ToEmail: "dana@example.com"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSendLiveRoutesTemplate(t *testing.T) {
	tests := []struct {
		templateID string
		wantVendor string
	}{
		{"password-hygiene", "template_pw42"},
		{"report-ready", "template_nt42"},
		{"phishing-awareness", "template_nt42"},
	}
	for _, tt := range tests {
		t.Run(tt.templateID, func(t *testing.T) {
			sender := &fakeSender{}
			s := newService(liveIDs, sender)

			res, err := s.Send(context.Background(), "acme", SendCommand{TemplateID: tt.templateID, ToEmail: "dana@example.com", ToName: "Dana"})
			if err != nil {
				t.Fatalf("Send failed: %v", err)
			}
			if res.Status != domain.StatusLive || res.VendorTemplateID != tt.wantVendor {
				t.Errorf("res = %+v", res)
			}
			if len(sender.sent) != 1 {
				t.Fatalf("sent = %d", len(sender.sent))
			}
			req := sender.sent[0]
			if req.VendorTemplateID != tt.wantVendor || req.SenderName != "Threat Console" {
				t.Errorf("request = %+v", req)
			}
			if !strings.Contains(req.HTML, "Hi Dana,") {
				t.Error("body not rendered for the target")
			}
		})
	}
}

func TestSendLiveDefaultsAndSubject(t *testing.T) {
	sender := &fakeSender{}
	s := newService(liveIDs, sender)

	if _, err := s.Send(context.Background(), "acme", SendCommand{TemplateID: "report-ready", ToEmail: "dana@example.com", Subject: "Custom"}); err != nil {
		t.Fatal(err)
	}
	req := sender.sent[0]
	if req.ToName != "dana@example.com" {
		t.Errorf("ToName = %q, want the address when no name given", req.ToName)
	}
	if req.Subject != "Custom" {
		t.Errorf("Subject = %q", req.Subject)
	}
}

func TestSendLiveTransportError(t *testing.T) {
	te := &vendor.TransportError{Vendor: "email", Message: "The Public Key is invalid"}
	sender := &fakeSender{err: te}
	s := newService(liveIDs, sender)
	log := &fakeLog{}
	s.Log = log

	_, err := s.Send(context.Background(), "acme", SendCommand{TemplateID: "report-ready", ToEmail: "dana@example.com"})
	if !errors.Is(err, te) {
		t.Fatalf("err = %v", err)
	}
	if len(log.saved) != 1 || log.saved[0].Status != domain.StatusFailed || log.saved[0].Message == "" {
		t.Errorf("dispatch log = %+v", log.saved)
	}
}

func TestSendValidation(t *testing.T) {
	s := newService(liveIDs, &fakeSender{})
	if _, err := s.Send(context.Background(), "acme", SendCommand{TemplateID: "report-ready", ToEmail: "nope"}); !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Errorf("bad address err = %v", err)
	}
	if _, err := s.Send(context.Background(), "acme", SendCommand{TemplateID: "nope", ToEmail: "dana@example.com"}); !errors.Is(err, domain.ErrUnknownTemplate) {
		t.Errorf("bad template err = %v", err)
	}
}

func TestPreview(t *testing.T) {
	s := newService(Identifiers{}, nil)
	p, err := s.Preview("training-complete", "Sam", "")
	if err != nil {
		t.Fatal(err)
	}
	tpl, _ := domain.Lookup("training-complete")
	if p.Subject != tpl.Subject || !strings.Contains(p.HTML, "Hi Sam,") {
		t.Errorf("preview = %+v", p)
	}
}

func TestStatusMasksIdentifiers(t *testing.T) {
	s := newService(Identifiers{ServiceID: "service_0123456789abcdef"}, nil)
	st := s.Status()
	if st.Live {
		t.Error("partial config must not be live")
	}
	if st.ServiceID != "service_012345…" {
		t.Errorf("ServiceID = %q", st.ServiceID)
	}
	if st.TemplateNotice != "not configured" {
		t.Errorf("TemplateNotice = %q", st.TemplateNotice)
	}
	if !newService(liveIDs, nil).IDs.Live() {
		t.Error("full config should be live")
	}
}
