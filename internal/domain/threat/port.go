package threat

import "context"

// Completer sends a prompt to a hosted text-generation model and returns the
// raw text it generated.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
	Configured() bool
}

// Archive port for persisting and querying analysis results
type Archive interface {
	Save(ctx context.Context, r *AnalysisResult) error
	Latest(ctx context.Context, tenant string, limit int) ([]*AnalysisResult, error)
}

// ReportStore keeps the narrative of a result as a downloadable document.
type ReportStore interface {
	PutReport(ctx context.Context, key string, body []byte) (string, error)
}
