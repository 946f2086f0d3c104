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
	"time"

	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/rays"
	"github.com/san-kum/risley/internal/sim"
)

var ErrSessionNotFound = errors.New("storage: session not found")

const (
	metadataFile = "metadata.json"
	raysFile     = "rays.csv"
)

var raysHeader = []string{"id", "target_x", "target_y", "theta1", "theta2", "color_index", "color", "stale"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// ParametersRecord is the persisted form of optics.Parameters. The wedge
// angle is stored in degrees.
type ParametersRecord struct {
	WedgeAngleDeg   float64 `json:"wedge_angle_deg"`
	RefractiveIndex float64 `json:"refractive_index"`
	ThicknessMm     float64 `json:"thickness_mm"`
	DiameterMm      float64 `json:"diameter_mm"`
	SeparationMm    float64 `json:"separation_mm"`
	ScreenMm        float64 `json:"screen_distance_mm"`
}

func NewParametersRecord(p optics.Parameters) ParametersRecord {
	return ParametersRecord{
		WedgeAngleDeg:   optics.Degrees(p.WedgeAngle),
		RefractiveIndex: p.RefractiveIndex,
		ThicknessMm:     p.PrismThickness,
		DiameterMm:      p.PrismDiameter,
		SeparationMm:    p.PrismSeparation,
		ScreenMm:        p.ScreenDistance,
	}
}

func (r ParametersRecord) Parameters() optics.Parameters {
	return optics.Parameters{
		WedgeAngle:      optics.Radians(r.WedgeAngleDeg),
		RefractiveIndex: r.RefractiveIndex,
		PrismThickness:  r.ThicknessMm,
		PrismDiameter:   r.DiameterMm,
		PrismSeparation: r.SeparationMm,
		ScreenDistance:  r.ScreenMm,
	}
}

type EnvelopeRecord struct {
	R1   float64 `json:"r1"`
	R2   float64 `json:"r2"`
	Rd   float64 `json:"rd"`
	Rmax float64 `json:"rmax"`
}

type SessionMetadata struct {
	ID         string           `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	Parameters ParametersRecord `json:"parameters"`
	Envelope   EnvelopeRecord   `json:"envelope"`
	RayCount   int              `json:"ray_count"`
	Capacity   int              `json:"capacity"`
	SelectedID int              `json:"selected_id,omitempty"`
	Animating  bool             `json:"animating"`
	Speed      float64          `json:"speed"`
}

// Session is a loaded session with its rays.
type Session struct {
	Metadata SessionMetadata
	Rays     []rays.Ray
}

// Save writes snap under a new session directory and returns its id.
func (s *Store) Save(snap sim.Snapshot, now time.Time) (string, error) {
	id := sessionID(now)
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := SessionMetadata{
		ID:         id,
		Timestamp:  now.UTC(),
		Parameters: NewParametersRecord(snap.Parameters),
		Envelope: EnvelopeRecord{
			R1:   snap.Envelope.R1,
			R2:   snap.Envelope.R2,
			Rd:   snap.Envelope.Rd,
			Rmax: snap.Envelope.Rmax,
		},
		RayCount:  len(snap.Rays),
		Capacity:  snap.Capacity,
		Animating: snap.Animating,
		Speed:     snap.Speed,
	}
	if snap.HasSelection {
		meta.SelectedID = snap.SelectedID
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeRays(filepath.Join(dir, raysFile), snap.Rays); err != nil {
		return "", fmt.Errorf("write rays: %w", err)
	}
	return id, nil
}

// List returns saved sessions, oldest first. Unreadable entries are skipped.
func (s *Store) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMetadata{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.Before(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*SessionMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	return &meta, nil
}

func (s *Store) LoadRays(id string) ([]rays.Ray, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, raysFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(raysHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rays %s: %w", id, err)
	}
	if len(records) < 2 {
		return []rays.Ray{}, nil
	}

	out := make([]rays.Ray, 0, len(records)-1)
	for i, rec := range records[1:] {
		ray, err := parseRay(rec)
		if err != nil {
			return nil, fmt.Errorf("rays %s line %d: %w", id, i+2, err)
		}
		out = append(out, ray)
	}
	return out, nil
}

// LoadSession reads both files of a session.
func (s *Store) LoadSession(id string) (*Session, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	rs, err := s.LoadRays(id)
	if err != nil {
		return nil, err
	}
	return &Session{Metadata: *meta, Rays: rs}, nil
}

// Controller rebuilds a controller from the session. Rays keep their ids
// and colours and are re-solved against the stored parameters. The stored
// capacity and animation state apply first; opts override them.
func (sess *Session) Controller(opts ...sim.Option) (*sim.Controller, error) {
	meta := sess.Metadata
	capacity := meta.Capacity
	if capacity == 0 {
		// written before capacity was recorded
		capacity = max(rays.DefaultCapacity, len(sess.Rays))
	}
	base := []sim.Option{sim.WithCapacity(capacity), sim.WithAnimation(meta.Animating)}

	ctrl, err := sim.New(meta.Parameters.Parameters(), append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	for _, r := range sess.Rays {
		if err := ctrl.Restore(r); err != nil {
			return nil, fmt.Errorf("restore ray %d: %w", r.ID, err)
		}
	}
	if meta.SelectedID != 0 {
		if err := ctrl.Select(meta.SelectedID); err != nil {
			return nil, fmt.Errorf("restore selection: %w", err)
		}
	}
	ctrl.SetSpeed(meta.Speed)
	return ctrl, nil
}

func sessionID(now time.Time) string {
	u := now.UTC()
	return fmt.Sprintf("session_%s_%03d", u.Format("20060102T150405"), u.Nanosecond()/int(time.Millisecond))
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRays(path string, rs []rays.Ray) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(raysHeader); err != nil {
		return err
	}
	for _, r := range rs {
		row := []string{
			strconv.Itoa(r.ID),
			formatFloat(r.TargetX),
			formatFloat(r.TargetY),
			formatFloat(r.Theta1),
			formatFloat(r.Theta2),
			strconv.Itoa(r.ColorIndex),
			r.Color,
			strconv.FormatBool(r.Stale),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseRay(rec []string) (rays.Ray, error) {
	var r rays.Ray
	var err error
	if r.ID, err = strconv.Atoi(rec[0]); err != nil {
		return r, err
	}
	floats := []*float64{&r.TargetX, &r.TargetY, &r.Theta1, &r.Theta2}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return r, err
		}
	}
	if r.ColorIndex, err = strconv.Atoi(rec[5]); err != nil {
		return r, err
	}
	r.Color = rec[6]
	if r.Stale, err = strconv.ParseBool(rec[7]); err != nil {
		return r, err
	}
	return r, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
