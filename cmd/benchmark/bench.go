package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// Load harness for the registry's read path. Seeds a handful of providers
// through the API, then drives the list and composite endpoints.
func main() {
	target := flag.String("target", "http://localhost:8080", "Base URL of a running registry server")
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rps := flag.Int("rate", 50, "Requests per second")
	flag.Parse()

	if err := waitForHealth(*target); err != nil {
		log.Fatalf("Server not reachable at %s: %v", *target, err)
	}

	seedProviders(*target, 5)

	targets := []vegeta.Target{
		{Method: http.MethodGet, URL: *target + "/api/v1/model-providers"},
		{Method: http.MethodGet, URL: *target + "/api/v1/model-providers?active_only=true"},
		{Method: http.MethodGet, URL: *target + "/api/v1/model-providers/with-models"},
	}

	rate := vegeta.Rate{Freq: *rps, Per: time.Second}
	attacker := vegeta.NewAttacker()

	var metrics vegeta.Metrics
	for res := range attacker.Attack(vegeta.NewStaticTargeter(targets...), rate, *duration, "registry-read-path") {
		metrics.Add(res)
	}
	metrics.Close()

	reporter := vegeta.NewTextReporter(&metrics)
	if err := reporter.Report(os.Stdout); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	if metrics.Success < 0.99 {
		fmt.Printf("\nWARNING: success ratio %.2f%% below 99%%\n", metrics.Success*100)
	}
}

func waitForHealth(base string) error {
	client := http.Client{Timeout: 2 * time.Second}
	var lastErr error
	for i := 0; i < 10; i++ {
		resp, err := client.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		} else {
			lastErr = err
		}
		time.Sleep(500 * time.Millisecond)
	}
	return lastErr
}

func seedProviders(base string, n int) {
	client := http.Client{Timeout: 5 * time.Second}
	for i := 0; i < n; i++ {
		body, _ := json.Marshal(map[string]any{
			"name":         fmt.Sprintf("bench-provider-%d", i),
			"display_name": fmt.Sprintf("Bench Provider %d", i),
			"is_active":    true,
		})
		resp, err := client.Post(base+"/api/v1/model-providers", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("Seed request failed: %v", err)
			continue
		}
		// 400 means the provider survives from a previous run; that is fine
		resp.Body.Close()
	}
}
