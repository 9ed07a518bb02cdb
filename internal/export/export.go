// Package export writes stored runs in formats meant for other tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/dpdsim/internal/sim"
	"github.com/san-kum/dpdsim/internal/storage"
)

// Data is the JSON document of one run.
type Data struct {
	*storage.RunMetadata
	Samples []sim.Sample `json:"samples"`
}

func WriteJSON(w io.Writer, meta *storage.RunMetadata, samples []sim.Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Data{RunMetadata: meta, Samples: samples})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'e', 8, 64)
}

// WriteCSV writes one row per sample. Runs sampled with stress get the
// off-diagonal shear components and the pressure as extra columns.
func WriteCSV(w io.Writer, samples []sim.Sample) error {
	withStress := len(samples) > 0 && samples[0].HasStress

	cw := csv.NewWriter(w)
	header := []string{"step", "time", "temperature", "kinetic_energy", "px", "py", "pz"}
	if withStress {
		header = append(header, "sxy", "sxz", "syz", "pressure")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Step),
			strconv.FormatFloat(s.Time, 'f', 6, 64),
			formatFloat(s.Temperature),
			formatFloat(s.KineticEnergy),
			formatFloat(s.Momentum[0]),
			formatFloat(s.Momentum[1]),
			formatFloat(s.Momentum[2]),
		}
		if withStress {
			row = append(row,
				formatFloat(s.Stress.At(0, 1)),
				formatFloat(s.Stress.At(0, 2)),
				formatFloat(s.Stress.At(1, 2)),
				formatFloat(s.Stress.Pressure()),
			)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
