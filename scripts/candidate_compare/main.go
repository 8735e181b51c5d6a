package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/noah-isme/study-portal/pkg/config"
)

// target is a read-only path every candidate deployment should answer identically.
type target struct {
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

var defaultTargets = []target{
	{Path: "/health", Critical: true},
	{Path: "/materials", Critical: true},
	{Path: "/materials?semester=sem-1", Critical: false},
	{Path: "/admin/pending", Critical: false},
	{Path: "/admin/approved", Critical: false},
}

type probe struct {
	Status   int
	Body     []byte
	Duration time.Duration
	Err      error
}

type comparison struct {
	Target    target
	Candidate string
	Reference probe
	Probe     probe
}

func (c comparison) outcome() string {
	switch {
	case c.Reference.Err != nil || c.Probe.Err != nil:
		return "ERROR"
	case c.Reference.Status != c.Probe.Status || !bodiesEqual(c.Reference.Body, c.Probe.Body):
		return "DIFF"
	default:
		return "OK"
	}
}

func main() {
	var (
		candidates  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&candidates, "candidates", "", "Comma separated base URLs; defaults to UPSTREAM_BASE_URLS")
	flag.StringVar(&targetsPath, "targets", "", "Optional JSON file with a targets array")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Per request timeout")
	flag.Parse()

	baseURLs := splitList(candidates)
	if len(baseURLs) == 0 {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		baseURLs = cfg.Upstream.BaseURLs
	}
	if len(baseURLs) < 2 {
		log.Fatalf("need at least two candidates to compare, got %d", len(baseURLs))
	}

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}
	results := compareAll(client, baseURLs, targets)
	printReport(baseURLs[0], results)

	breaking, optional := tally(results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

// compareAll probes every target on every candidate and compares each
// answer with the first candidate's.
func compareAll(client *http.Client, baseURLs []string, targets []target) []comparison {
	results := make([]comparison, 0, len(targets)*(len(baseURLs)-1))
	for _, tgt := range targets {
		reference := fetch(client, baseURLs[0], tgt.Path)
		for _, candidate := range baseURLs[1:] {
			results = append(results, comparison{
				Target:    tgt,
				Candidate: candidate,
				Reference: reference,
				Probe:     fetch(client, candidate, tgt.Path),
			})
		}
	}
	return results
}

func tally(results []comparison) (breaking, optional int) {
	for _, res := range results {
		if res.outcome() == "OK" {
			continue
		}
		if res.Target.Critical {
			breaking++
		} else {
			optional++
		}
	}
	return breaking, optional
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file struct {
		Targets []target `json:"targets"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func fetch(client *http.Client, base, path string) probe {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	start := time.Now()
	resp, err := client.Get(strings.TrimRight(base, "/") + path)
	if err != nil {
		return probe{Err: err, Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return probe{Status: resp.StatusCode, Body: body, Duration: time.Since(start), Err: err}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimRight(strings.TrimSpace(part), "/"); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	return reflect.DeepEqual(normalize(aj), normalize(bj))
}

// normalize drops volatile counters so two healthy deployments compare equal.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			switch k {
			case "views", "downloads", "timestamp", "uptime":
				delete(val, k)
			default:
				val[k] = normalize(child)
			}
		}
		return val
	case []interface{}:
		for i, child := range val {
			val[i] = normalize(child)
		}
		return val
	default:
		return v
	}
}

func printReport(reference string, results []comparison) {
	fmt.Println("Candidate Compare Report")
	fmt.Println("========================")
	fmt.Printf("Reference: %s\n", reference)
	for _, res := range results {
		fmt.Printf("[%s] %s @ %s\n", res.outcome(), res.Target.Path, res.Candidate)
		fmt.Printf("  Reference Status: %d (%s)\n", res.Reference.Status, res.Reference.Duration)
		fmt.Printf("  Candidate Status: %d (%s)\n", res.Probe.Status, res.Probe.Duration)
		if res.Reference.Err != nil {
			fmt.Printf("  Reference error: %v\n", res.Reference.Err)
		}
		if res.Probe.Err != nil {
			fmt.Printf("  Candidate error: %v\n", res.Probe.Err)
		}
	}
}
