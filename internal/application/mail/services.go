package mail

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/threat-console/internal/application"
	domain "github.com/bryanwahyu/threat-console/internal/domain/mail"
	"github.com/bryanwahyu/threat-console/internal/domain/vendor"
)

// DefaultSimulatedDelay mimics the latency of a real send when the vendor is
// not configured.
const DefaultSimulatedDelay = 1800 * time.Millisecond

// Identifiers are the vendor ids that must all be set for live sending.
type Identifiers struct {
	ServiceID        string
	TemplatePassword string
	TemplateNotice   string
	PublicKey        string
}

// Live reports whether every identifier holds a real value.
func (i Identifiers) Live() bool {
	for _, v := range []string{i.ServiceID, i.TemplatePassword, i.TemplateNotice, i.PublicKey} {
		if vendor.IsPlaceholder(v) {
			return false
		}
	}
	return true
}

// vendorTemplate picks the vendor template id for a template kind.
func (i Identifiers) vendorTemplate(k domain.Kind) string {
	if k == domain.KindPassword {
		return i.TemplatePassword
	}
	return i.TemplateNotice
}

// Service implements the notice mail use-cases. Log is optional.
type Service struct {
	Sender         domain.Sender
	IDs            Identifiers
	SenderName     string
	SimulatedDelay time.Duration
	Log            domain.DispatchLog
	Clock          application.Clock
}

type SendCommand struct {
	TemplateID string
	ToEmail    string
	ToName     string
	Subject    string // optional, overrides the template subject
}

// Preview is a rendered message as it would be sent.
type Preview struct {
	TemplateID string `json:"template_id"`
	Subject    string `json:"subject"`
	HTML       string `json:"html"`
}

func (s *Service) Templates() []domain.Template {
	return domain.Templates()
}

func (s *Service) Preview(templateID, targetName, customSubject string) (Preview, error) {
	tpl, ok := domain.Lookup(templateID)
	if !ok {
		return Preview{}, domain.ErrUnknownTemplate
	}
	html, err := domain.Render(tpl.ID, targetName, s.SenderName)
	if err != nil {
		return Preview{}, err
	}
	subject := strings.TrimSpace(customSubject)
	if subject == "" {
		subject = tpl.Subject
	}
	return Preview{TemplateID: tpl.ID, Subject: subject, HTML: html}, nil
}

// Send delivers one notice. Without live identifiers nothing leaves the
// process: the call waits SimulatedDelay and reports a simulated send.
func (s *Service) Send(ctx context.Context, tenant string, cmd SendCommand) (domain.SendResult, error) {
	if !domain.ValidRecipient(cmd.ToEmail) {
		return domain.SendResult{}, domain.ErrInvalidRecipient
	}
	tpl, ok := domain.Lookup(cmd.TemplateID)
	if !ok {
		return domain.SendResult{}, domain.ErrUnknownTemplate
	}

	res := domain.SendResult{ID: uuid.New().String(), TemplateID: tpl.ID}

	if !s.IDs.Live() || s.Sender == nil {
		delay := s.SimulatedDelay
		if delay < 0 {
			delay = 0
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.SendResult{}, ctx.Err()
		}
		res.Status = domain.StatusSimulated
		res.SentAt = s.now()
		s.record(ctx, tenant, cmd, res, "")
		return res, nil
	}

	p, err := s.Preview(tpl.ID, cmd.ToName, cmd.Subject)
	if err != nil {
		return domain.SendResult{}, err
	}
	toName := strings.TrimSpace(cmd.ToName)
	if toName == "" {
		toName = cmd.ToEmail
	}
	res.VendorTemplateID = s.IDs.vendorTemplate(tpl.Kind)

	err = s.Sender.Send(ctx, domain.SendRequest{
		VendorTemplateID: res.VendorTemplateID,
		ToEmail:          strings.TrimSpace(cmd.ToEmail),
		ToName:           toName,
		SenderName:       s.SenderName,
		Subject:          p.Subject,
		HTML:             p.HTML,
		TemplateLabel:    tpl.Label,
	})
	res.SentAt = s.now()
	if err != nil {
		failed := res
		failed.Status = domain.StatusFailed
		s.record(ctx, tenant, cmd, failed, err.Error())
		return domain.SendResult{}, err
	}

	res.Status = domain.StatusLive
	s.record(ctx, tenant, cmd, res, "")
	return res, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) record(ctx context.Context, tenant string, cmd SendCommand, res domain.SendResult, msg string) {
	if s.Log == nil {
		return
	}
	d := &domain.Dispatch{
		ID:         res.ID,
		TenantID:   tenant,
		TemplateID: res.TemplateID,
		Recipient:  cmd.ToEmail,
		Status:     res.Status,
		Message:    msg,
		CreatedAt:  res.SentAt,
	}
	if err := s.Log.Save(ctx, d); err != nil {
		log.Printf("dispatch log save failed: tenant=%s id=%s err=%v", tenant, res.ID, err)
	}
}

// Dispatches lists logged send attempts; empty without a log.
func (s *Service) Dispatches(ctx context.Context, tenant string, limit int) ([]*domain.Dispatch, error) {
	if s.Log == nil {
		return []*domain.Dispatch{}, nil
	}
	return s.Log.ListByTenant(ctx, tenant, limit)
}

// Status shows whether sending is live, with identifiers shortened.
type Status struct {
	Live             bool   `json:"live"`
	SenderName       string `json:"sender_name"`
	ServiceID        string `json:"service_id"`
	TemplatePassword string `json:"template_password"`
	TemplateNotice   string `json:"template_notice"`
}

func (s *Service) Status() Status {
	return Status{
		Live:             s.IDs.Live(),
		SenderName:       s.SenderName,
		ServiceID:        shorten(s.IDs.ServiceID),
		TemplatePassword: shorten(s.IDs.TemplatePassword),
		TemplateNotice:   shorten(s.IDs.TemplateNotice),
	}
}

func shorten(v string) string {
	if vendor.IsPlaceholder(v) {
		return "not configured"
	}
	r := []rune(v)
	if len(r) <= 14 {
		return v
	}
	return string(r[:14]) + "…"
}
