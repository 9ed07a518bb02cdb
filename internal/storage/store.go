package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/san-kum/dpdsim/internal/config"
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/sim"
)

const (
	catalogFile  = "catalog.db"
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	configFile   = "config.yaml"
)

// Store keeps one directory per run and a SQLite catalog of all runs in
// baseDir.
type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the base directory and opens the catalog.
func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, catalogFile))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return fmt.Errorf("create runs table: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Particles   int                `json:"particles"`
	Steps       int                `json:"steps"`
	TimeStep    float64            `json:"time_step"`
	Temperature float64            `json:"temperature"`
	Box         [3]float64         `json:"box"`
	Resorts     int                `json:"resorts"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes the run directory and records the run in the catalog.
func (s *Store) Save(ctx context.Context, cfg *config.Config, result *sim.Result) (string, error) {
	if s.db == nil {
		if err := s.Init(ctx); err != nil {
			return "", err
		}
	}

	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Name:        cfg.Name,
		Timestamp:   now,
		Seed:        result.Seed,
		Particles:   cfg.Particles,
		Steps:       result.StepsTaken,
		TimeStep:    cfg.TimeStep,
		Temperature: cfg.Temperature,
		Box:         cfg.Box,
		Resorts:     result.Resorts,
		Metrics:     result.Metrics,
	}

	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), payload, 0644); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), result.Samples); err != nil {
		return "", err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(id, created, payload) VALUES(?, ?, ?)`,
		runID, now.UnixNano(), payload,
	); err != nil {
		return "", fmt.Errorf("catalog insert: %w", err)
	}
	return runID, nil
}

var sampleHeader = []string{"step", "time", "temperature", "kinetic_energy", "px", "py", "pz", "resorts"}

var stressHeader = []string{"sxx", "sxy", "sxz", "syx", "syy", "syz", "szx", "szy", "szz"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSamples(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	withStress := len(samples) > 0 && samples[0].HasStress
	header := append([]string(nil), sampleHeader...)
	if withStress {
		header = append(header, stressHeader...)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, sm := range samples {
		row := []string{
			strconv.Itoa(sm.Step),
			formatFloat(sm.Time),
			formatFloat(sm.Temperature),
			formatFloat(sm.KineticEnergy),
			formatFloat(sm.Momentum[0]),
			formatFloat(sm.Momentum[1]),
			formatFloat(sm.Momentum[2]),
			strconv.Itoa(sm.Resorts),
		}
		if withStress {
			for _, v := range sm.Stress {
				row = append(row, formatFloat(v))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the catalogued runs, newest first.
func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	if _, err := os.Stat(s.baseDir); errors.Is(err, os.ErrNotExist) {
		return []RunMetadata{}, nil
	}
	if s.db == nil {
		if err := s.Init(ctx); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY created DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadSamples reads the sample table of a run back.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	withStress := len(records[0]) == len(sampleHeader)+len(stressHeader)
	samples := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < len(sampleHeader) {
			return nil, fmt.Errorf("row %d: %d fields", i+1, len(rec))
		}
		vals := make([]float64, len(rec))
		for j, f := range rec {
			if vals[j], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j, err)
			}
		}

		sm := sim.Sample{
			Step:          int(vals[0]),
			Time:          vals[1],
			Temperature:   vals[2],
			KineticEnergy: vals[3],
			Momentum:      dynamo.Vec3{vals[4], vals[5], vals[6]},
			Resorts:       int(vals[7]),
		}
		if withStress && len(vals) == len(sampleHeader)+len(stressHeader) {
			copy(sm.Stress[:], vals[len(sampleHeader):])
			sm.HasStress = true
		}
		samples = append(samples, sm)
	}
	return samples, nil
}
