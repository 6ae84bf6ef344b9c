package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/ballpit/internal/constraints"
	"github.com/san-kum/ballpit/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	FrameRate float64            `json:"fps"`
	Bodies    int                `json:"bodies"`
	Steps     int                `json:"steps"`
	Overflow  string             `json:"overflow"`
	Metrics   map[string]float64 `json:"metrics"`

	// Colors holds each body's appearance by handle; Geometry is the
	// solver outline the run used.
	Colors   []string              `json:"colors,omitempty"`
	Geometry []constraints.Segment `json:"geometry,omitempty"`
}

// FrameRecord is one body in one frame; frames.csv holds one row per
// record in frame order.
type FrameRecord struct {
	Frame   int     `csv:"frame"`
	Time    float64 `csv:"time"`
	Steps   int     `csv:"steps"`
	Body    int     `csv:"body"`
	X       float64 `csv:"x"`
	Y       float64 `csv:"y"`
	PrevX   float64 `csv:"prev_x"`
	PrevY   float64 `csv:"prev_y"`
	Radius  float64 `csv:"radius"`
	Dynamic bool    `csv:"dynamic"`
}

// Records flattens frames into CSV rows.
func Records(frames []dynamo.Frame) []*FrameRecord {
	out := make([]*FrameRecord, 0, len(frames))
	for i, f := range frames {
		for _, s := range f.Samples {
			out = append(out, &FrameRecord{
				Frame:   i,
				Time:    f.Time,
				Steps:   f.Steps,
				Body:    int(s.Handle),
				X:       s.Pos.X,
				Y:       s.Pos.Y,
				PrevX:   s.Prev.X,
				PrevY:   s.Prev.Y,
				Radius:  s.Radius,
				Dynamic: s.Dynamic,
			})
		}
	}
	return out
}

// Frames rebuilds frames from rows written by Records.
func Frames(records []*FrameRecord) ([]dynamo.Frame, error) {
	var frames []dynamo.Frame
	for i, r := range records {
		if r.Frame < 0 {
			return nil, fmt.Errorf("row %d: negative frame %d", i+1, r.Frame)
		}
		for len(frames) <= r.Frame {
			frames = append(frames, dynamo.Frame{})
		}
		f := &frames[r.Frame]
		f.Time, f.Steps = r.Time, r.Steps
		f.Samples = append(f.Samples, dynamo.Sample{
			Handle:  dynamo.Handle(r.Body),
			Pos:     dynamo.Vec{X: r.X, Y: r.Y},
			Prev:    dynamo.Vec{X: r.PrevX, Y: r.PrevY},
			Radius:  r.Radius,
			Dynamic: r.Dynamic,
		})
	}
	return frames, nil
}

// Save writes meta and the frames of result under a new run directory and
// returns the run ID. ID, Timestamp, Steps and Metrics are filled in.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Steps = result.Steps
	meta.Metrics = result.Metrics
	if len(result.Frames) > 0 {
		meta.Bodies = len(result.Frames[0].Samples)
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := WriteFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteFrames writes frames as CSV to path.
func WriteFrames(path string, frames []dynamo.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.MarshalFile(Records(frames), f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// FramesPath is where the frames of runID live, for copying or export.
func (s *Store) FramesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, framesFile)
}

func (s *Store) LoadFrames(runID string) ([]dynamo.Frame, error) {
	f, err := os.Open(s.FramesPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	defer f.Close()

	var records []*FrameRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("read %s: %w", runID, err)
	}
	frames, err := Frames(records)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", runID, err)
	}
	return frames, nil
}

// Heights returns, per body handle, the y position in every frame.
func Heights(frames []dynamo.Frame) map[dynamo.Handle][]float64 {
	out := make(map[dynamo.Handle][]float64)
	for _, f := range frames {
		for _, s := range f.Samples {
			out[s.Handle] = append(out[s.Handle], s.Pos.Y)
		}
	}
	return out
}
