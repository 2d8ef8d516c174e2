package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hackgods/salon-scheduling/internal/schedule"
)

// simulate drives a running api-server with concurrent bookings that target a
// few masters and days, then checks that no master ended up double-booked.
// It expects users created by cmd/seed and a server started with
// RATE_LIMIT_RPS=0, since every worker shares one client IP.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Clients      int
	Days         int
	BookingRatio float64
	FreeRatio    float64
	ReadRatio    float64
	Password     string
	FirstDay     time.Time
}

type service struct {
	ID             int64 `json:"id"`
	DurationQuanta int   `json:"duration_quarters"`
	MasterID       int64 `json:"master_id"`
}

type appointmentView struct {
	ID        int64  `json:"id"`
	ServiceID int64  `json:"service_id"`
	MasterID  int64  `json:"master_id"`
	Date      string `json:"date"`
	Quarter   int    `json:"quarter"`
}

type DataPool struct {
	Tokens   []string
	Services []service
	Schedule schedule.Config
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, p99 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	pct := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return sum / time.Duration(len(latencies)), pct(50), pct(95), pct(99)
}

type Metrics struct {
	Booking      OperationMetrics
	OutOfBounds  int64
	FreeQuarters OperationMetrics
	ListClient   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d days=%d booking=%.2f free=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.Days, cfg.BookingRatio, cfg.FreeRatio, cfg.ReadRatio)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := sim.loadDataPool(ctx)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	sim.pool = pool
	log.Printf("loaded: %d clients, %d services", len(pool.Tokens), len(pool.Services))

	sim.Run()
	sim.PrintReport()

	verifyCtx, cancelVerify := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelVerify()
	if err := sim.verifyNoOverlaps(verifyCtx); err != nil {
		log.Fatalf("verification failed: %v", err)
	}
	log.Println("verification passed: no master is double-booked")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 20),
		Clients:      getInt("SIM_CLIENTS", 50),
		Days:         getInt("SIM_DAYS", 3),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.6),
		FreeRatio:    getFloat("SIM_FREE_RATIO", 0.25),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.15),
		Password:     getEnv("SIM_PASSWORD", "password"),
		FirstDay:     time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour),
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.FreeRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.FreeRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Clients <= 0 || cfg.Days <= 0 {
		return fmt.Errorf("SIM_CLIENTS and SIM_DAYS must be > 0")
	}
	return nil
}

func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	pool := &DataPool{}

	for i := 1; i <= s.config.Clients; i++ {
		token, err := s.login(ctx, fmt.Sprintf("client%03d", i))
		if err != nil {
			if i == 1 {
				return nil, err
			}
			break
		}
		pool.Tokens = append(pool.Tokens, token)
	}

	if err := s.getJSON(ctx, pool.Tokens[0], "/api/services", &pool.Services); err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	if len(pool.Services) == 0 {
		return nil, fmt.Errorf("no services loaded")
	}

	var sc struct {
		DayQuanta int `json:"day_quanta"`
	}
	if err := s.getJSON(ctx, pool.Tokens[0], "/api/schedule", &sc); err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	pool.Schedule = schedule.Config{DayQuanta: sc.DayQuanta}

	return pool, nil
}

func (s *Simulator) login(ctx context.Context, login string) (string, error) {
	form := url.Values{"username": {login}, "password": {s.config.Password}}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/api/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login %s: status %d", login, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.AccessToken, nil
}

func (s *Simulator) getJSON(ctx context.Context, token, path string, dst any) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.FreeRatio:
				s.doFreeQuarters(ctx, rng)
			default:
				s.doListClient(ctx, rng)
			}
		}
	}
}

func (s *Simulator) randomDay(rng *rand.Rand) string {
	return s.config.FirstDay.AddDate(0, 0, rng.Intn(s.config.Days)).Format("2006-01-02")
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	token := s.pool.Tokens[rng.Intn(len(s.pool.Tokens))]
	svc := s.pool.Services[rng.Intn(len(s.pool.Services))]

	body, _ := json.Marshal(map[string]any{
		"service_id": svc.ID,
		"date":       s.randomDay(rng),
		"quarter":    1 + rng.Intn(s.pool.Schedule.DayQuanta),
	})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/api/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
		case http.StatusConflict:
			conflict = true
		case http.StatusBadRequest:
			// a random start near the end of the day does not fit
			atomic.AddInt64(&s.metrics.OutOfBounds, 1)
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doFreeQuarters(ctx context.Context, rng *rand.Rand) {
	token := s.pool.Tokens[rng.Intn(len(s.pool.Tokens))]
	svc := s.pool.Services[rng.Intn(len(s.pool.Services))]

	start := time.Now()
	var out struct {
		FreeQuarters []int `json:"free_quarters"`
	}
	err := s.getJSON(ctx, token, fmt.Sprintf("/api/services/%d/free_quarters?date=%s", svc.ID, s.randomDay(rng)), &out)
	s.metrics.FreeQuarters.Record(time.Since(start), err == nil, false)
}

func (s *Simulator) doListClient(ctx context.Context, rng *rand.Rand) {
	token := s.pool.Tokens[rng.Intn(len(s.pool.Tokens))]

	start := time.Now()
	var out []appointmentView
	err := s.getJSON(ctx, token, "/api/appointments/client", &out)
	s.metrics.ListClient.Record(time.Since(start), err == nil, false)
}

// verifyNoOverlaps lists every appointment and checks each master's day with
// the same overlap rule the server applies.
func (s *Simulator) verifyNoOverlaps(ctx context.Context) error {
	var all []appointmentView
	if err := s.getJSON(ctx, s.pool.Tokens[0], "/api/appointments", &all); err != nil {
		return err
	}

	durations := make(map[int64]int, len(s.pool.Services))
	for _, svc := range s.pool.Services {
		durations[svc.ID] = svc.DurationQuanta
	}

	type dayKey struct {
		master int64
		date   string
	}
	days := make(map[dayKey][]schedule.Booking)
	for _, a := range all {
		k := dayKey{master: a.MasterID, date: a.Date}
		days[k] = append(days[k], schedule.Booking{
			AppointmentID: a.ID,
			Start:         a.Quarter,
			Duration:      durations[a.ServiceID],
		})
	}

	for k, bookings := range days {
		if pairs := schedule.Conflicts(bookings); len(pairs) > 0 {
			return fmt.Errorf("master %d on %s has %d overlapping pairs, first: %d and %d",
				k.master, k.date, len(pairs), pairs[0][0].AppointmentID, pairs[0][1].AppointmentID)
		}
	}

	log.Printf("verified %d appointments across %d master days", len(all), len(days))
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	if n := atomic.LoadInt64(&s.metrics.OutOfBounds); n > 0 {
		fmt.Printf("  of which out of working hours: %d\n\n", n)
	}
	printOperationReport("Free quarters", &s.metrics.FreeQuarters)
	printOperationReport("List client appointments", &s.metrics.ListClient)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, p50, p95, p99 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Rejected: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s p99=%s\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), p99.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
