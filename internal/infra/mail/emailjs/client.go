package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/threat-console/internal/domain/mail"
	"github.com/bryanwahyu/threat-console/internal/domain/vendor"
)

const (
	vendorName = "email"

	DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"
)

type Options struct {
	Endpoint   string
	ServiceID  string
	PublicKey  string
	PrivateKey string // optional access token for strict mode
	Timeout    time.Duration
}

// Client talks to the EmailJS REST API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	serviceID  string
	publicKey  string
	privateKey string
}

func NewClient(opts Options) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		serviceID:  opts.ServiceID,
		publicKey:  opts.PublicKey,
		privateKey: opts.PrivateKey,
	}
}

type sendPayload struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts one message. EmailJS answers 200 with the body "OK"; anything
// else carries a plain-text reason that is passed through.
func (c *Client) Send(ctx context.Context, req mail.SendRequest) error {
	payload := sendPayload{
		ServiceID:   c.serviceID,
		TemplateID:  req.VendorTemplateID,
		UserID:      c.publicKey,
		AccessToken: c.privateKey,
		TemplateParams: map[string]string{
			"to_email":      req.ToEmail,
			"to_name":       req.ToName,
			"from_name":     req.SenderName,
			"subject":       req.Subject,
			"message_html":  req.HTML,
			"template_name": req.TemplateLabel,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return &vendor.TransportError{Vendor: vendorName, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &vendor.TransportError{Vendor: vendorName, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	te := &vendor.TransportError{
		Vendor:     vendorName,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		te.Err = vendor.ErrQuotaExceeded
	}
	return te
}
