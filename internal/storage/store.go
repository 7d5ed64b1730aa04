// Package storage records control loop runs on disk: one directory per run
// holding metadata.json and angles.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/servoloop/internal/loop"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Source    string             `json:"source"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed,omitempty"`
	PeriodMS  int                `json:"period_ms"`
	Cycles    int                `json:"cycles"`
	Channels  []string           `json:"channels"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Series is a recorded run read back from angles.csv. Angles[c] and
// Targets[c] hold channel c over time.
type Series struct {
	Times    []float64
	Channels []string
	Angles   [][]float64
	Targets  [][]float64
}

// Recording collects cycle results as a loop.Observer.
type Recording struct {
	Results []loop.CycleResult
}

func (r *Recording) OnCycle(c loop.CycleResult) {
	r.Results = append(r.Results, c.Clone())
}

// Save writes meta and results as a new run and returns its id. ID,
// Timestamp, Cycles and Channels are filled in from the results.
func (s *Store) Save(meta RunMetadata, results []loop.CycleResult) (string, error) {
	now := s.now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Source, now.UnixMilli())
	meta.Timestamp = now
	meta.Cycles = len(results)
	if len(results) > 0 {
		meta.Channels = make([]string, len(results[0].Channels))
		for i, c := range results[0].Channels {
			meta.Channels[i] = c.Name
		}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeAngles(filepath.Join(runDir, "angles.csv"), meta.Channels, results); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAngles(path string, channels []string, results []loop.CycleResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"cycle", "time_ms"}
	for _, name := range channels {
		header = append(header, name+"_angle", name+"_target")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		elapsed := 0.0
		if !results[0].Time.IsZero() {
			elapsed = float64(r.Time.Sub(results[0].Time)) / float64(time.Millisecond)
		}
		row := []string{strconv.Itoa(r.Cycle), strconv.FormatFloat(elapsed, 'f', 3, 64)}
		for _, c := range r.Channels {
			row = append(row,
				strconv.FormatFloat(c.Angle, 'f', 6, 64),
				strconv.FormatFloat(c.Target, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Latest returns the id of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no recorded runs")
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) LoadAngles(runID string) (*Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "angles.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: empty angles.csv", runID)
	}

	header := records[0]
	if len(header) < 2 || len(header)%2 != 0 {
		return nil, fmt.Errorf("run %s: malformed angles.csv header", runID)
	}
	n := (len(header) - 2) / 2
	series := &Series{
		Times:    make([]float64, 0, len(records)-1),
		Channels: make([]string, n),
		Angles:   make([][]float64, n),
		Targets:  make([][]float64, n),
	}
	for c := 0; c < n; c++ {
		name, ok := strings.CutSuffix(header[2+2*c], "_angle")
		if !ok || name == "" {
			return nil, fmt.Errorf("run %s: unexpected angles.csv column %q", runID, header[2+2*c])
		}
		series.Channels[c] = name
	}

	for _, record := range records[1:] {
		if len(record) != len(header) {
			continue
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		series.Times = append(series.Times, t)
		for c := 0; c < n; c++ {
			a, _ := strconv.ParseFloat(record[2+2*c], 64)
			tg, _ := strconv.ParseFloat(record[3+2*c], 64)
			series.Angles[c] = append(series.Angles[c], a)
			series.Targets[c] = append(series.Targets[c], tg)
		}
	}
	return series, nil
}
