// Command probe replays a list of questions against the configured
// assistant and records the replies with their latency.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"SupportChat/pkg/config"
	svc "SupportChat/pkg/services"
	utils "SupportChat/pkg/utills"
)

func main() {
	queriesPath := flag.String("queries", "queries.json", "JSON file with the questions to replay")
	outDir := flag.String("out", "results", "directory for the JSON and CSV results")
	timeout := flag.Duration("timeout", 40*time.Second, "per-question timeout")
	sleep := flag.Duration("sleep", 600*time.Millisecond, "pause between questions")
	flag.Parse()

	if err := config.Load(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if !config.IsAssistantEnabled {
		fmt.Println("[warn] IS_ASSISTANT_ENABLED=false, replies come from the local assistant")
	}

	queries, err := readQueries(*queriesPath)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	assistant := svc.NewAssistant()
	started := time.Now()
	summary := RunSummary{
		RunID:        fmt.Sprintf("probe-%s-%s", started.Format("20060102-150405"), uuid.NewString()[:8]),
		StartedAt:    started.Format(time.RFC3339),
		Env:          config.AppEnv,
		Provider:     assistant.Name(),
		Model:        assistant.Model(),
		TotalQueries: len(queries),
		Results:      make([]ResultItem, 0, len(queries)),
	}

	for i, q := range queries {
		item := ask(assistant, q, *timeout)
		summary.Results = append(summary.Results, item)
		fmt.Printf("[%d/%d] %s -> %s error=%v\n", i+1, len(queries), utils.Truncate(q, 64),
			utils.FormatResponseTime(float64(item.DurationMs)), item.Error != "")
		if i < len(queries)-1 {
			time.Sleep(*sleep)
		}
	}
	summary.EndedAt = time.Now().Format(time.RFC3339)
	summarize(&summary)

	if err := ensureDir(*outDir); err != nil {
		fmt.Println("failed to create results dir:", err)
		os.Exit(1)
	}
	stamp := started.Format("20060102-150405")
	jsonPath := filepath.Join(*outDir, fmt.Sprintf("probe-%s.json", stamp))
	csvPath := filepath.Join(*outDir, fmt.Sprintf("probe-%s.csv", stamp))
	if err := writeJSON(jsonPath, summary); err != nil {
		fmt.Println("failed to write JSON:", err)
		os.Exit(1)
	}
	if err := writeCSV(csvPath, summary.Results); err != nil {
		fmt.Println("failed to write CSV:", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d questions, %d failed, avg %s\n", summary.TotalQueries, summary.Failed,
		utils.FormatResponseTime(float64(summary.AvgMs)))
	fmt.Println("Saved:")
	fmt.Println(" -", jsonPath)
	fmt.Println(" -", csvPath)
}

func ask(assistant svc.Assistant, q string, timeout time.Duration) ResultItem {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	t0 := time.Now()
	resp, err := assistant.Ask(ctx, svc.ChatFromHistory(nil, q), "")
	item := ResultItem{
		Query:      q,
		Response:   strings.TrimSpace(resp),
		DurationMs: time.Since(t0).Milliseconds(),
		Provider:   assistant.Name(),
		Model:      assistant.Model(),
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	if err != nil {
		item.Error = err.Error()
	}
	return item
}
