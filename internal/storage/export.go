package storage

import (
	"encoding/json"
	"io"
	"time"

	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/sim"
)

type ExportRay struct {
	ID        int     `json:"id"`
	TargetX   float64 `json:"target_x_mm"`
	TargetY   float64 `json:"target_y_mm"`
	Radius    float64 `json:"radius_mm"`
	Theta1Deg float64 `json:"theta1_deg"`
	Theta2Deg float64 `json:"theta2_deg"`
	Color     string  `json:"color"`
	Stale     bool    `json:"stale,omitempty"`
}

type ExportData struct {
	ExportedAt time.Time        `json:"exported_at"`
	Parameters ParametersRecord `json:"parameters"`
	Envelope   EnvelopeRecord   `json:"envelope"`
	Rays       []ExportRay      `json:"rays"`
}

// NewExportData flattens a snapshot into the JSON export shape with angles
// in degrees.
func NewExportData(snap sim.Snapshot, now time.Time) ExportData {
	data := ExportData{
		ExportedAt: now.UTC(),
		Parameters: NewParametersRecord(snap.Parameters),
		Envelope: EnvelopeRecord{
			R1:   snap.Envelope.R1,
			R2:   snap.Envelope.R2,
			Rd:   snap.Envelope.Rd,
			Rmax: snap.Envelope.Rmax,
		},
		Rays: make([]ExportRay, len(snap.Rays)),
	}
	for i, r := range snap.Rays {
		data.Rays[i] = ExportRay{
			ID:        r.ID,
			TargetX:   r.TargetX,
			TargetY:   r.TargetY,
			Radius:    r.Radius(),
			Theta1Deg: optics.Degrees(r.Theta1),
			Theta2Deg: optics.Degrees(r.Theta2),
			Color:     r.Color,
			Stale:     r.Stale,
		}
	}
	return data
}

func ExportJSON(w io.Writer, snap sim.Snapshot, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(snap, now))
}
