package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string
	Slug         string
	Date         string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ReadRatio    float64
	PatientLimit int
	SlotLimit    int
	PostgresDSN  string
}

// target is one bookable start time every worker competes for.
type target struct {
	ProfessionalID uuid.UUID
	Start          time.Time
}

type patient struct {
	DNI       string `json:"dni"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type DataPool struct {
	Targets  []target
	Patients []patient
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

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking  OperationMetrics
	Slots    OperationMetrics
	Occupied OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     zerolog.Logger
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load base config")
	}
	log := logger.New(baseCfg.IsProduction(), baseCfg.LogLevel)

	cfg := loadConfig(baseCfg)
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Str("slug", cfg.Slug).
		Str("date", cfg.Date).
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dataPool, err := sim.loadDataPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}
	sim.pool = dataPool
	log.Info().Int("targets", len(dataPool.Targets)).Int("patients", len(dataPool.Patients)).Msg("data pool loaded")

	sim.Run()
	sim.PrintReport()

	checkCtx, checkCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer checkCancel()

	pgPool, err := db.ConnectPostgres(checkCtx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	dupes, err := countDuplicateBookings(checkCtx, pgPool)
	if err != nil {
		log.Fatal().Err(err).Msg("count duplicate bookings")
	}
	fmt.Printf("Duplicate live bookings (same professional and start): %d\n", dupes)
}

func loadConfig(base config.Config) SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Slug:         getEnv("SIM_SLUG", "demo"),
		Date:         getEnv("SIM_DATE", nextWeekday(time.Now()).Format("2006-01-02")),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.7),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 500),
		SlotLimit:    getInt("SIM_SLOT_LIMIT", 50),
		PostgresDSN:  base.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
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
	if cfg.SlotLimit <= 0 || cfg.PatientLimit <= 0 {
		return fmt.Errorf("SIM_SLOT_LIMIT and SIM_PATIENT_LIMIT must be > 0")
	}
	return nil
}

func nextWeekday(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// loadDataPool reads the public slot listing of every professional of the
// clinic and keeps a small set of start times so that workers collide.
func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	var professionals []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := s.getJSON(ctx, fmt.Sprintf("/t/%s/professionals", s.config.Slug), &professionals); err != nil {
		return nil, fmt.Errorf("load professionals: %w", err)
	}

	dataPool := &DataPool{}
	for _, p := range professionals {
		var slots []struct {
			Start time.Time `json:"start"`
		}
		path := fmt.Sprintf("/t/%s/professionals/%s/slots?date=%s", s.config.Slug, p.ID, s.config.Date)
		if err := s.getJSON(ctx, path, &slots); err != nil {
			return nil, fmt.Errorf("load slots for %s: %w", p.ID, err)
		}
		for _, sl := range slots {
			if len(dataPool.Targets) >= s.config.SlotLimit {
				break
			}
			dataPool.Targets = append(dataPool.Targets, target{ProfessionalID: p.ID, Start: sl.Start})
		}
	}

	faker := gofakeit.New(0)
	for i := 0; i < s.config.PatientLimit; i++ {
		dataPool.Patients = append(dataPool.Patients, patient{
			DNI:       strconv.Itoa(faker.Number(10000000, 99999999)),
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Email:     faker.Email(),
		})
	}

	if len(dataPool.Targets) == 0 {
		return nil, fmt.Errorf("no free slots on %s", s.config.Date)
	}
	return dataPool, nil
}

func (s *Simulator) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
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

	s.log.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			t := s.pool.Targets[rng.Intn(len(s.pool.Targets))]
			if rng.Float64() < s.config.BookingRatio {
				s.doBooking(ctx, rng, t)
			} else if rng.Intn(2) == 0 {
				s.doRead(ctx, &s.metrics.Slots,
					fmt.Sprintf("/t/%s/professionals/%s/slots?date=%s", s.config.Slug, t.ProfessionalID, s.config.Date))
			} else {
				s.doRead(ctx, &s.metrics.Occupied,
					fmt.Sprintf("/t/%s/appointments?professionalId=%s&date=%s", s.config.Slug, t.ProfessionalID, s.config.Date))
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, t target) {
	p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	body, _ := json.Marshal(map[string]any{
		"professionalId": t.ProfessionalID.String(),
		"startDateTime":  t.Start.Format(time.RFC3339),
		"patient":        p,
	})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/t/%s/appointments", s.config.APIBaseURL, s.config.Slug), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false
	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
		case http.StatusConflict, http.StatusUnprocessableEntity:
			// slot taken or locked by a concurrent booking
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doRead(ctx context.Context, om *OperationMetrics, path string) {
	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	om.Record(latency, success, false)
}

func countDuplicateBookings(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT professional_id, start_time
			FROM appointments
			WHERE status <> 'CANCELLED'
			GROUP BY professional_id, start_time
			HAVING count(*) > 1
		) d
	`).Scan(&n)
	return n, err
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Clinic: %s  Date: %s\n", s.config.Slug, s.config.Date)
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Contended start times: %d\n", len(s.pool.Targets))
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Slots", &s.metrics.Slots)
	printOperationReport("Occupied", &s.metrics.Occupied)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

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
