// Command loadgen fires concurrent registrations at a running server and
// checks that the event never ends up over capacity or with duplicates.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

type options struct {
	baseURL   string
	eventID   string
	capacity  int
	requests  int
	workers   int
	dupEvery  int
	timeout   time.Duration
	clientTag string
}

type job struct {
	n     int
	email string
}

// tally counts responses by status code.
type tally struct {
	mu     sync.Mutex
	counts map[int]int
	errors int
}

func (t *tally) add(status int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.errors++
		return
	}
	t.counts[status]++
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&opts.eventID, "event", "", "existing event id; a new event is created when empty")
	flag.IntVar(&opts.capacity, "capacity", 50, "capacity of the event created when -event is empty")
	flag.IntVar(&opts.requests, "n", 200, "number of registration attempts")
	flag.IntVar(&opts.workers, "workers", 20, "concurrent workers")
	flag.IntVar(&opts.dupEvery, "dup-every", 10, "reuse an earlier email every N requests (0 disables)")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per request timeout")
	flag.StringVar(&opts.clientTag, "tag", fmt.Sprintf("%d", time.Now().Unix()), "suffix that keeps emails unique across runs")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("load run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	client := &http.Client{Timeout: opts.timeout}

	eventID := opts.eventID
	if eventID == "" {
		id, err := createEvent(ctx, client, opts)
		if err != nil {
			return err
		}
		eventID = id
		logger.Info("created event", "event_id", eventID, "capacity", opts.capacity)
	}

	before, err := attendeeTotal(ctx, client, opts.baseURL, eventID)
	if err != nil {
		return err
	}

	jobs := make(chan job, opts.workers*2)
	results := &tally{counts: make(map[int]int)}
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				status, err := register(ctx, client, opts.baseURL, eventID, j)
				results.add(status, err)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for n := 0; n < opts.requests; n++ {
			email := fmt.Sprintf("load-%s-%d@example.com", opts.clientTag, n)
			if opts.dupEvery > 0 && n > 0 && n%opts.dupEvery == 0 {
				email = fmt.Sprintf("LOAD-%s-%d@example.com", opts.clientTag, n-1)
			}
			select {
			case jobs <- job{n: n, email: email}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	elapsed := time.Since(start)

	total, err := attendeeTotal(ctx, client, opts.baseURL, eventID)
	if err != nil {
		return err
	}

	logger.Info("load run finished",
		"event_id", eventID,
		"elapsed_ms", elapsed.Milliseconds(),
		"created", results.counts[http.StatusCreated],
		"conflict", results.counts[http.StatusConflict],
		"rate_limited", results.counts[http.StatusTooManyRequests],
		"unavailable", results.counts[http.StatusServiceUnavailable],
		"transport_errors", results.errors,
		"attendees_before", before,
		"attendees", total,
	)

	capacity := 0
	if opts.eventID == "" {
		capacity = opts.capacity
	}
	return verify(before, total, results.counts[http.StatusCreated], capacity)
}

// verify checks the attendee counts read before and after a run. capacity is
// only known for events the run created itself; zero skips that check.
func verify(before, after, created, capacity int) error {
	if after-before != created {
		return fmt.Errorf("attendee total grew by %d but %d registrations succeeded", after-before, created)
	}
	if capacity > 0 && after > capacity {
		return fmt.Errorf("event is over capacity: %d > %d", after, capacity)
	}
	return nil
}

func createEvent(ctx context.Context, client *http.Client, opts options) (string, error) {
	start := time.Now().Add(24 * time.Hour).UTC()
	body, _ := json.Marshal(map[string]any{
		"name":         "Load test " + opts.clientTag,
		"start_time":   start.Format(time.RFC3339),
		"end_time":     start.Add(2 * time.Hour).Format(time.RFC3339),
		"max_capacity": opts.capacity,
	})

	var created struct {
		ID string `json:"id"`
	}
	status, err := doJSON(ctx, client, http.MethodPost, opts.baseURL+"/api/events", body, &created)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("creating event: unexpected status %d", status)
	}
	return created.ID, nil
}

func register(ctx context.Context, client *http.Client, baseURL, eventID string, j job) (int, error) {
	body, _ := json.Marshal(map[string]string{
		"name":  fmt.Sprintf("Load %d", j.n),
		"email": j.email,
	})
	return doJSON(ctx, client, http.MethodPost, baseURL+"/api/events/"+eventID+"/register", body, nil)
}

func attendeeTotal(ctx context.Context, client *http.Client, baseURL, eventID string) (int, error) {
	var page struct {
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	status, err := doJSON(ctx, client, http.MethodGet, baseURL+"/api/events/"+eventID+"/attendees?per_page=1", nil, &page)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("listing attendees: unexpected status %d", status)
	}
	return page.Meta.Total, nil
}

func doJSON(ctx context.Context, client *http.Client, method, url string, body []byte, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding %s %s: %w", method, url, err)
		}
	}
	return resp.StatusCode, nil
}

