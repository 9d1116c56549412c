package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type check struct {
	name     string
	method   string
	endpoint string
	payload  interface{}
	status   int
	verify   func(body []byte) error
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	wait := flag.Duration("wait", 2*time.Second, "time to wait for the server to start")
	flag.Parse()

	time.Sleep(*wait)
	fmt.Println("Starting smoke test...")

	checks := []check{
		{name: "health", method: http.MethodGet, endpoint: "/health", status: http.StatusOK},
		{
			name:     "triples",
			method:   http.MethodPost,
			endpoint: "/triples",
			payload:  map[string]string{"sentence": "Einstein was born in Ulm."},
			status:   http.StatusOK,
			verify:   hasKeys("entities", "triples"),
		},
		{
			name:     "verify kg_only",
			method:   http.MethodPost,
			endpoint: "/api/verify",
			payload:  map[string]interface{}{"claim": "TUM is a university in Germany", "mode": "kg_only"},
			status:   http.StatusOK,
			verify:   hasKeys("label", "evidence", "entity_linking", "kg_success"),
		},
		{
			name:     "verify hybrid",
			method:   http.MethodPost,
			endpoint: "/api/verify",
			payload: map[string]interface{}{
				"claim":             "Mount Kilimanjaro is in Africa",
				"mode":              "hybrid",
				"classifierDbpedia": "LLM",
				"classifierBackup":  "DEBERTA",
			},
			status: http.StatusOK,
			verify: hasKeys("label", "ranking_method"),
		},
		{
			name:     "verify rejects missing claim",
			method:   http.MethodPost,
			endpoint: "/api/verify",
			payload:  map[string]string{"mode": "hybrid"},
			status:   http.StatusBadRequest,
		},
		{name: "metrics", method: http.MethodGet, endpoint: "/metrics", status: http.StatusOK},
	}

	failed := 0
	for i, c := range checks {
		fmt.Printf("%d. %s...\n", i+1, c.name)
		if err := run(*baseURL, c); err != nil {
			fmt.Printf("FAILED: %s: %v\n", c.name, err)
			failed++
			continue
		}
		fmt.Printf("PASSED: %s\n", c.name)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func run(baseURL string, c check) error {
	var body io.Reader
	if c.payload != nil {
		jsonBytes, err := json.Marshal(c.payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(c.method, baseURL+c.endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != c.status {
		return fmt.Errorf("status %d, want %d: %s", resp.StatusCode, c.status, string(respBody))
	}
	if c.endpoint != "/metrics" {
		fmt.Printf("Response: %s\n", string(respBody))
	}
	if c.verify != nil {
		return c.verify(respBody)
	}
	return nil
}

func hasKeys(keys ...string) func([]byte) error {
	return func(body []byte) error {
		var out map[string]interface{}
		if err := json.Unmarshal(body, &out); err != nil {
			return fmt.Errorf("response is not a JSON object: %w", err)
		}
		for _, k := range keys {
			if _, ok := out[k]; !ok {
				return fmt.Errorf("response has no %q field", k)
			}
		}
		return nil
	}
}
