package threat

import "sync"

// HistorySize is how many recent results each tenant keeps.
const HistorySize = 5

// History holds the most recent results per tenant, newest first. It lives
// only in memory and is gone after a restart.
type History struct {
	mu      sync.Mutex
	size    int
	entries map[string][]AnalysisResult
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = HistorySize
	}
	return &History{size: size, entries: make(map[string][]AnalysisResult)}
}

// Push prepends r and drops whatever falls past the cap.
func (h *History) Push(tenant string, r AnalysisResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.entries[tenant]
	next := make([]AnalysisResult, 0, min(len(prev)+1, h.size))
	next = append(next, r)
	for _, e := range prev {
		if len(next) == h.size {
			break
		}
		next = append(next, e)
	}
	h.entries[tenant] = next
}

// List returns a copy of the tenant's history, newest first.
func (h *History) List(tenant string) []AnalysisResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]AnalysisResult, len(h.entries[tenant]))
	copy(out, h.entries[tenant])
	return out
}
