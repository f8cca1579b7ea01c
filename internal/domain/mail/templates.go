package mail

import (
	"bytes"
	"html/template"
	"strings"
)

// Kind decides which vendor template id a message is routed through.
type Kind string

const (
	KindPassword Kind = "password"
	KindNotice   Kind = "notice"
)

// Template is one of the fixed notification layouts.
type Template struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Subject string `json:"subject"`
	Preview string `json:"preview"`
	Kind    Kind   `json:"kind"`
}

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1"></head>
<body style="margin:0;padding:0;background:#f4f5f7;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background:#f4f5f7;padding:40px 0;">
    <tr><td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border:1px solid #dde1e6;border-radius:6px;max-width:600px;">
        <tr><td style="background:#0f172a;padding:28px 40px;color:#e2e8f0;font-size:20px;font-weight:700;">{{.Heading}}</td></tr>
        <tr><td style="padding:36px 40px;color:#1f2937;font-size:14px;line-height:1.6;">
          <p style="margin:0 0 16px;">Hi {{.Name}},</p>
          {{range .Paragraphs}}<p style="margin:0 0 16px;">{{.}}</p>
          {{end}}<p style="margin:24px 0 0;color:#6b7280;font-size:12px;">This is an automated notice from {{.Sender}}. No action links are included; contact your security team directly if anything looks wrong.</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

var layoutTpl = template.Must(template.New("layout").Parse(layout))

type content struct {
	Heading    string
	Paragraphs []string
}

type view struct {
	Heading    string
	Paragraphs []string
	Name       string
	Sender     string
}

var catalog = []struct {
	Template
	content
}{
	{
		Template{ID: "report-ready", Label: "Threat Report Ready", Subject: "Your threat analysis report is ready", Preview: "The analysis you requested has finished...", Kind: KindNotice},
		content{"Threat report ready", []string{
			"The analysis you requested has finished. The report is available in the threat console under your recent history.",
			"Reports are kept for the current session only.",
		}},
	},
	{
		Template{ID: "password-hygiene", Label: "Password Hygiene Reminder", Subject: "Reminder: review your password practices", Preview: "A short checklist for stronger passwords...", Kind: KindPassword},
		content{"Password hygiene reminder", []string{
			"Use a unique passphrase of at least 12 characters for every account and keep it in a password manager.",
			"Turn on multi-factor authentication wherever it is offered and never share one-time codes.",
		}},
	},
	{
		Template{ID: "phishing-awareness", Label: "Phishing Awareness Tips", Subject: "How to spot a phishing email", Preview: "Urgency, spoofed senders and unexpected links...", Kind: KindNotice},
		content{"Spotting phishing", []string{
			"Be wary of messages that create urgency, ask for credentials, or come from a sender address that does not match the organisation.",
			"Hover over links before clicking and report suspicious messages to your security team.",
		}},
	},
	{
		Template{ID: "training-complete", Label: "Awareness Training Complete", Subject: "You completed the security awareness exercise", Preview: "Thanks for taking part in the exercise...", Kind: KindNotice},
		content{"Exercise complete", []string{
			"Thanks for taking part in this security awareness exercise.",
			"Your results have been recorded and will be shared with you by your security team.",
		}},
	},
}

// Templates returns the fixed template set in display order.
func Templates() []Template {
	out := make([]Template, len(catalog))
	for i, c := range catalog {
		out[i] = c.Template
	}
	return out
}

// Lookup finds a template by id.
func Lookup(id string) (Template, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c.Template, true
		}
	}
	return Template{}, false
}

// Render fills the layout for one recipient. An empty name renders as "there".
// Names and sender are HTML-escaped.
func Render(id, targetName, sender string) (string, error) {
	for _, c := range catalog {
		if c.ID != id {
			continue
		}
		name := strings.TrimSpace(targetName)
		if name == "" {
			name = "there"
		}
		var buf bytes.Buffer
		err := layoutTpl.Execute(&buf, view{
			Heading:    c.Heading,
			Paragraphs: c.Paragraphs,
			Name:       name,
			Sender:     sender,
		})
		if err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return "", ErrUnknownTemplate
}
