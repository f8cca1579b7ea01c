package mail

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Status of a send attempt.
type Status string

const (
	StatusLive      Status = "live"
	StatusSimulated Status = "simulated"
	StatusFailed    Status = "failed"
)

var (
	ErrInvalidRecipient = errors.New("recipient must be a valid email address")
	ErrUnknownTemplate  = errors.New("unknown template")
)

// SendRequest is what goes to the email vendor once a template is rendered.
type SendRequest struct {
	VendorTemplateID string
	ToEmail          string
	ToName           string
	SenderName       string
	Subject          string
	HTML             string
	TemplateLabel    string
}

// SendResult reports how a send was handled.
type SendResult struct {
	ID               string    `json:"id"`
	Status           Status    `json:"status"`
	TemplateID       string    `json:"template_id"`
	VendorTemplateID string    `json:"vendor_template_id,omitempty"`
	SentAt           time.Time `json:"sent_at"`
}

// Dispatch is one logged send attempt.
type Dispatch struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	TemplateID string    `json:"template_id"`
	Recipient  string    `json:"recipient"`
	Status     Status    `json:"status"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sender port for the transactional email vendor
type Sender interface {
	Send(ctx context.Context, req SendRequest) error
}

// DispatchLog port for recording send attempts
type DispatchLog interface {
	Save(ctx context.Context, d *Dispatch) error
	ListByTenant(ctx context.Context, tenant string, limit int) ([]*Dispatch, error)
}

// ValidRecipient is a light shape check: one "@" with a dotted domain.
func ValidRecipient(addr string) bool {
	addr = strings.TrimSpace(addr)
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at != strings.Index(addr, "@") || strings.ContainsAny(addr, " \t\r\n<>") {
		return false
	}
	domain := addr[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
