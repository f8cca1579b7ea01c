package threat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/threat-console/internal/application"
	domain "github.com/bryanwahyu/threat-console/internal/domain/threat"
	"github.com/bryanwahyu/threat-console/internal/domain/vendor"
	"github.com/bryanwahyu/threat-console/internal/infra/ai/prompt"
)

// Service implements the threat analysis use-cases.
// Archive and Reports are optional; nil disables them.
type Service struct {
	Completer domain.Completer
	History   *domain.History
	Archive   domain.Archive
	Reports   domain.ReportStore
	Clock     application.Clock
}

func NewService(c domain.Completer) *Service {
	return &Service{
		Completer: c,
		History:   domain.NewHistory(domain.HistorySize),
		Clock:     application.SystemClock{},
	}
}

// Status is what the console shows about the model connection.
type Status struct {
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
	Archive    bool   `json:"archive"`
	Reports    bool   `json:"reports"`
}

func (s *Service) Status() Status {
	return Status{
		Model:      s.Completer.Model(),
		Configured: s.Completer.Configured(),
		Archive:    s.Archive != nil,
		Reports:    s.Reports != nil,
	}
}

// Analyze runs one subject through the model. Configuration and transport
// failures are returned as-is; a reply that lacks the markers is not a
// failure and still yields a complete result.
func (s *Service) Analyze(ctx context.Context, tenant string, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return domain.AnalysisResult{}, domain.ErrEmptySubject
	}
	if req.Mode != domain.ModePassword && req.Mode != domain.ModeEmail {
		return domain.AnalysisResult{}, domain.ErrInvalidMode
	}

	if !s.Completer.Configured() {
		return domain.AnalysisResult{}, &vendor.ConfigError{Vendor: "completion", Field: "ai.apiKey"}
	}

	text, err := s.Completer.Complete(ctx, prompt.Build(req.Subject, req.Mode))
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	res := domain.Parse(text)
	res.ID = domain.AnalysisID(uuid.New().String())
	res.TenantID = tenant
	res.Mode = req.Mode
	res.Subject = domain.MaskSubject(req.Subject, req.Mode)
	res.Timestamp = s.Clock.Now()

	s.History.Push(tenant, res)
	s.persist(ctx, &res)

	return res, nil
}

// persist archives the result and uploads the narrative. Both are
// best-effort: the user already has the analysis.
func (s *Service) persist(ctx context.Context, res *domain.AnalysisResult) {
	if s.Archive != nil {
		if err := s.Archive.Save(ctx, res); err != nil {
			log.Printf("archive save failed: tenant=%s id=%s err=%v", res.TenantID, res.ID, err)
		}
	}
	if s.Reports != nil {
		key := fmt.Sprintf("%s/reports/%s.md", res.TenantID, res.ID)
		if _, err := s.Reports.PutReport(ctx, key, []byte(RenderReport(*res))); err != nil {
			log.Printf("report upload failed: tenant=%s id=%s err=%v", res.TenantID, res.ID, err)
		}
	}
}

// RecentHistory returns the tenant's recent results, newest first.
func (s *Service) RecentHistory(tenant string) []domain.AnalysisResult {
	return s.History.List(tenant)
}

// Archived returns archived results, newest first. Without an archive it
// falls back to the in-memory history.
func (s *Service) Archived(ctx context.Context, tenant string, limit int) ([]*domain.AnalysisResult, error) {
	if s.Archive == nil {
		recent := s.History.List(tenant)
		out := make([]*domain.AnalysisResult, 0, len(recent))
		for i := range recent {
			if limit > 0 && len(out) == limit {
				break
			}
			out = append(out, &recent[i])
		}
		return out, nil
	}
	return s.Archive.Latest(ctx, tenant, limit)
}

// RenderReport formats a result as a markdown document.
func RenderReport(r domain.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Threat report %s\n\n", r.ID)
	fmt.Fprintf(&b, "- Mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "- Subject: %s\n", r.Subject)
	fmt.Fprintf(&b, "- Threat score: %d/100\n", r.Score)
	fmt.Fprintf(&b, "- Security score: %d/100\n", r.SecurityScore())
	fmt.Fprintf(&b, "- Level: %s\n", r.Level)
	fmt.Fprintf(&b, "- Time: %s\n\n", r.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	b.WriteString(r.Narrative)
	b.WriteString("\n")
	return b.String()
}
