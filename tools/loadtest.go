package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var (
	requestCount  int64
	successCount  int64
	failCount     int64
	totalLatency  int64 // nanoseconds
	latencies     []int64
	latenciesLock sync.Mutex
)

type logRecord struct {
	Text      string `json:"LOGS"`
	CreatedAt string `json:"CREATEDON"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run tools/loadtest.go <url> [workers] [batch] [duration]")
		fmt.Println("Example: go run tools/loadtest.go http://localhost:8080/logs 8 100 30s")
		os.Exit(1)
	}

	url := os.Args[1]
	workers := 8
	batch := 100
	duration := 30 * time.Second

	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &workers)
	}
	if len(os.Args) > 3 {
		fmt.Sscanf(os.Args[3], "%d", &batch)
	}
	if len(os.Args) > 4 {
		if d, err := time.ParseDuration(os.Args[4]); err == nil {
			duration = d
		}
	}

	fmt.Printf("Load Test Configuration:\n")
	fmt.Printf("  URL:      %s\n", url)
	fmt.Printf("  Workers:  %d\n", workers)
	fmt.Printf("  Batch:    %d records\n", batch)
	fmt.Printf("  Duration: %v\n\n", duration)

	latencies = make([]int64, 0, 10000)
	startTime := time.Now()
	endTime := startTime.Add(duration)

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        workers,
			MaxIdleConnsPerHost: workers,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for time.Now().Before(endTime) {
				sendBatch(client, url, generateBatch(rng, batch))
			}
		}(startTime.UnixNano() + int64(w))
	}

	wg.Wait()
	printResults(time.Since(startTime))
}

// generateBatch mixes MeterValues traffic, heartbeats and the occasional
// error so every analysis path is exercised.
func generateBatch(rng *rand.Rand, n int) []logRecord {
	now := time.Now().UTC()
	out := make([]logRecord, n)
	for i := range out {
		charger := fmt.Sprintf("CP%03d", rng.Intn(20))
		ts := now.Add(-time.Duration(i) * time.Second).Format(time.RFC3339)

		var text string
		switch r := rng.Intn(10); {
		case r < 6:
			voltage := 200 + rng.Float64()*50
			text = fmt.Sprintf(
				`Received MeterValues from %s: {"connectorId":1,"transactionId":%d,"meterValue":[{"sampledValue": [{"value":"%.0f","measurand":"Energy.Active.Import.Register"},{"value":"%.1f","measurand":"Power.Active.Import"},{"value":"%.1f","measurand":"Voltage"}]}]}`,
				charger, rng.Intn(50), rng.Float64()*60000, 3000+rng.Float64()*8000, voltage)
		case r < 9:
			text = fmt.Sprintf(`Received Heartbeat from %s: {}`, charger)
		default:
			text = fmt.Sprintf(`Error from %s: {"errorCode":"GroundFailure","status":"Faulted"}`, charger)
		}
		out[i] = logRecord{Text: text, CreatedAt: ts}
	}
	return out
}

func sendBatch(client *http.Client, url string, records []logRecord) {
	body, _ := json.Marshal(records)
	req, _ := http.NewRequest("POST", url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)

	atomic.AddInt64(&requestCount, 1)

	if err != nil || resp.StatusCode != http.StatusOK {
		atomic.AddInt64(&failCount, 1)
		if resp != nil {
			resp.Body.Close()
		}
		return
	}

	atomic.AddInt64(&successCount, 1)
	resp.Body.Close()

	atomic.AddInt64(&totalLatency, latency.Nanoseconds())
	latenciesLock.Lock()
	latencies = append(latencies, latency.Nanoseconds())
	latenciesLock.Unlock()
}

func percentile(sorted []int64, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return time.Duration(sorted[idx])
}

func printResults(duration time.Duration) {
	total := atomic.LoadInt64(&requestCount)
	success := atomic.LoadInt64(&successCount)
	failed := atomic.LoadInt64(&failCount)

	latenciesLock.Lock()
	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	latenciesLock.Unlock()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	avgLatency := time.Duration(0)
	if success > 0 {
		avgLatency = time.Duration(atomic.LoadInt64(&totalLatency) / success)
	}

	successRate := 0.0
	if total > 0 {
		successRate = float64(success) / float64(total) * 100
	}

	fmt.Println("\n==========================================")
	fmt.Println("Load Test Results")
	fmt.Println("==========================================")
	fmt.Printf("Duration:       %v\n", duration)
	fmt.Printf("Total Batches:  %d\n", total)
	fmt.Printf("Successful:     %d\n", success)
	fmt.Printf("Failed:         %d\n", failed)
	fmt.Printf("Success Rate:   %.2f%%\n", successRate)
	fmt.Printf("Batches/sec:    %.2f\n", float64(total)/duration.Seconds())
	fmt.Println("\nLatency Statistics:")
	fmt.Printf("  Average:      %v\n", avgLatency)
	if len(sorted) > 0 {
		fmt.Printf("  Min:          %v\n", time.Duration(sorted[0]))
		fmt.Printf("  Max:          %v\n", time.Duration(sorted[len(sorted)-1]))
		fmt.Printf("  p50:          %v\n", percentile(sorted, 50))
		fmt.Printf("  p95:          %v\n", percentile(sorted, 95))
		fmt.Printf("  p99:          %v\n", percentile(sorted, 99))
	}
	fmt.Println("==========================================")
}
