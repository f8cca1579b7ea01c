package threat

import (
	"sync"
	"testing"
)

func TestHistoryKeepsNewestFirstAndCaps(t *testing.T) {
	h := NewHistory(HistorySize)
	for i := 1; i <= 7; i++ {
		h.Push("acme", AnalysisResult{Score: i})
	}

	got := h.List("acme")
	if len(got) != HistorySize {
		t.Fatalf("len = %d, want %d", len(got), HistorySize)
	}
	for i, r := range got {
		if want := 7 - i; r.Score != want {
			t.Errorf("entry %d score = %d, want %d", i, r.Score, want)
		}
	}
}

func TestHistoryIsPerTenant(t *testing.T) {
	h := NewHistory(0)
	h.Push("a", AnalysisResult{Score: 1})
	h.Push("b", AnalysisResult{Score: 2})

	if got := h.List("a"); len(got) != 1 || got[0].Score != 1 {
		t.Errorf("tenant a history = %+v", got)
	}
	if got := h.List("missing"); len(got) != 0 {
		t.Errorf("unknown tenant should be empty, got %+v", got)
	}
}

func TestHistoryListIsACopy(t *testing.T) {
	h := NewHistory(3)
	h.Push("a", AnalysisResult{Score: 1})
	list := h.List("a")
	list[0].Score = 99
	if h.List("a")[0].Score != 1 {
		t.Error("mutating the returned slice changed the history")
	}
}

func TestHistoryConcurrentPush(t *testing.T) {
	h := NewHistory(HistorySize)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.Push("a", AnalysisResult{Score: n})
		}(i)
	}
	wg.Wait()
	if got := len(h.List("a")); got != HistorySize {
		t.Errorf("len = %d, want %d", got, HistorySize)
	}
}
