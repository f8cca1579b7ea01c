package threat

import (
	"errors"
	"strings"
	"time"
)

// Mode selects which prompt template the subject is analyzed with.
type Mode string

const (
	ModePassword Mode = "password"
	ModeEmail    Mode = "email"
)

// ParseMode accepts the mode case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePassword:
		return ModePassword, nil
	case ModeEmail:
		return ModeEmail, nil
	}
	return "", ErrInvalidMode
}

// Level is the categorical severity assigned by the model.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelHigh     Level = "HIGH"
	LevelMedium   Level = "MEDIUM"
	LevelLow      Level = "LOW"
	LevelSafe     Level = "SAFE"
)

var (
	ErrEmptySubject = errors.New("subject text is required")
	ErrInvalidMode  = errors.New("invalid mode (allowed: password, email)")
)

// AnalysisID identifier type
type AnalysisID string

// AnalysisRequest is built once per submission and dropped after the reply.
type AnalysisRequest struct {
	Subject string
	Mode    Mode
}

// AnalysisResult is the structured view of one completion. Score is a danger
// score, not a safety score: 100 means critically dangerous.
type AnalysisResult struct {
	ID        AnalysisID `json:"id,omitempty"`
	TenantID  string     `json:"tenant_id,omitempty"`
	Mode      Mode       `json:"mode,omitempty"`
	Subject   string     `json:"subject,omitempty"` // masked, see MaskSubject
	Score     int        `json:"score"`
	Level     Level      `json:"level"`
	Narrative string     `json:"narrative"`
	Timestamp time.Time  `json:"timestamp"`
}

// SecurityScore is the inverse of Score, as shown on the report gauge.
func (r AnalysisResult) SecurityScore() int {
	return max(0, 100-r.Score)
}

const (
	maskMaxRunes  = 20
	emailMaxRunes = 60
)

// MaskSubject returns the form of the subject that is safe to keep around.
// Passwords never leave the request; only a bullet run of bounded length does.
func MaskSubject(subject string, mode Mode) string {
	runes := []rune(subject)
	if mode == ModePassword {
		return strings.Repeat("•", min(len(runes), maskMaxRunes))
	}
	if len(runes) > emailMaxRunes {
		return string(runes[:emailMaxRunes]) + "..."
	}
	return subject
}
