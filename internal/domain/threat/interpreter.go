package threat

import (
	"regexp"
	"strconv"
	"strings"
)

// Marker tokens the prompt asks the model to emit. The prompt builder and
// Parse must agree on these literals.
const (
	ScoreMarker = "THREAT_SCORE"
	LevelMarker = "THREAT_LEVEL"
)

var (
	scoreRx = regexp.MustCompile(`(?i)` + ScoreMarker + `:[ \t]*(\d+)`)
	levelRx = regexp.MustCompile(`(?i)` + LevelMarker + `:[ \t]*(CRITICAL|HIGH|MEDIUM|LOW|SAFE)\b`)
)

// defaultScores maps a level to the score used when the model gave a level
// but no score. Monotonic in severity.
var defaultScores = map[Level]int{
	LevelSafe:     15,
	LevelLow:      35,
	LevelMedium:   55,
	LevelHigh:     78,
	LevelCritical: 95,
}

const (
	fallbackLevel = LevelMedium
	fallbackScore = 55
)

// DefaultScore returns the fixed score for a level, or the MEDIUM score for
// anything unknown.
func DefaultScore(l Level) int {
	if s, ok := defaultScores[l]; ok {
		return s
	}
	return fallbackScore
}

// Parse turns free-form model output into a fully populated result. It never
// fails: missing or malformed markers fall back to the default table. Parse
// is pure; ID, Mode, Subject and Timestamp are left for the caller.
func Parse(raw string) AnalysisResult {
	var (
		level    Level
		hasLevel bool
		score    int
		hasScore bool
	)

	if m := levelRx.FindStringSubmatch(raw); m != nil {
		level = Level(strings.ToUpper(m[1]))
		hasLevel = true
	}
	if m := scoreRx.FindStringSubmatch(raw); m != nil {
		score = clampScore(m[1])
		hasScore = true
	}

	switch {
	case hasScore && hasLevel:
	case hasLevel:
		score = DefaultScore(level)
	case hasScore:
		level = fallbackLevel
	default:
		level, score = fallbackLevel, fallbackScore
	}

	return AnalysisResult{
		Score:     score,
		Level:     level,
		Narrative: stripMarkers(raw),
	}
}

// clampScore parses a run of digits into [0,100]. Runs too long for an int
// are clearly above the range.
func clampScore(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil || n > 100 {
		return 100
	}
	return max(n, 0)
}

// stripMarkers removes every marker occurrence. Lines that held nothing but
// markers are dropped so the narrative does not keep holes where they were.
func stripMarkers(raw string) string {
	lines := strings.Split(raw, "\n")
	out := lines[:0]
	for _, line := range lines {
		if !scoreRx.MatchString(line) && !levelRx.MatchString(line) {
			out = append(out, line)
			continue
		}
		cleaned := scoreRx.ReplaceAllString(line, "")
		cleaned = levelRx.ReplaceAllString(cleaned, "")
		if strings.TrimSpace(cleaned) == "" {
			continue
		}
		out = append(out, strings.TrimRight(cleaned, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
