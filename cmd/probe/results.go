package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type ResultItem struct {
	Query      string `json:"query"`
	Response   string `json:"response"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Timestamp  string `json:"timestamp"`
}

type RunSummary struct {
	RunID        string       `json:"run_id"`
	StartedAt    string       `json:"started_at"`
	EndedAt      string       `json:"ended_at"`
	Env          string       `json:"env"`
	Provider     string       `json:"provider"`
	Model        string       `json:"model"`
	TotalQueries int          `json:"total_queries"`
	Failed       int          `json:"failed"`
	AvgMs        int64        `json:"avg_duration_ms"`
	Results      []ResultItem `json:"results"`
}

// readQueries accepts either ["q1", "q2"] or [{"q": "..."}].
func readQueries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return parseQueries(data)
}

func parseQueries(data []byte) ([]string, error) {
	var arrAny []any
	if err := json.Unmarshal(data, &arrAny); err != nil {
		return nil, fmt.Errorf("invalid queries file: %w", err)
	}
	out := make([]string, 0, len(arrAny))
	for _, v := range arrAny {
		var q string
		switch t := v.(type) {
		case string:
			q = t
		case map[string]any:
			q, _ = t["q"].(string)
		}
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("queries file is empty or malformed")
	}
	return out, nil
}

func summarize(s *RunSummary) {
	var total int64
	ok := 0
	s.Failed = 0
	for _, it := range s.Results {
		if it.Error != "" {
			s.Failed++
			continue
		}
		total += it.DurationMs
		ok++
	}
	s.AvgMs = 0
	if ok > 0 {
		s.AvgMs = total / int64(ok)
	}
}

func ensureDir(p string) error {
	return os.MkdirAll(p, 0o755)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []ResultItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"query", "provider", "model", "duration_ms", "error", "response"}); err != nil {
		return err
	}
	for _, it := range items {
		if err := w.Write([]string{
			it.Query,
			it.Provider,
			it.Model,
			fmt.Sprintf("%d", it.DurationMs),
			it.Error,
			it.Response,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
