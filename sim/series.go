package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// TimeSeries holds the level of every tank after each hour. Index 0 is the initial state
// and index t is the state after hour t. Append-only.
type TimeSeries struct {
	A         []float64 `json:"a"`
	B         []float64 `json:"b"`
	C         []float64 `json:"c"`
	Principal []float64 `json:"principal"`
}

// maxPreallocHours caps the up-front series allocation; longer runs grow by append.
const maxPreallocHours = 24 * 366

// NewTimeSeries preallocates a series for horizon hours plus the initial sample, up to
// maxPreallocHours.
func NewTimeSeries(horizon int) *TimeSeries {
	n := min(max(horizon, 0), maxPreallocHours) + 1
	return &TimeSeries{
		A:         make([]float64, 0, n),
		B:         make([]float64, 0, n),
		C:         make([]float64, 0, n),
		Principal: make([]float64, 0, n),
	}
}

// Append records a snapshot of the tanks.
func (ts *TimeSeries) Append(t Tanks) {
	ts.A = append(ts.A, t.A.Level)
	ts.B = append(ts.B, t.B.Level)
	ts.C = append(ts.C, t.C.Level)
	ts.Principal = append(ts.Principal, t.Principal.Level)
}

// Len returns the number of samples.
func (ts *TimeSeries) Len() int { return len(ts.Principal) }

// seriesColumns are the CSV headers written by WriteCSV.
var seriesColumns = []string{"hour", "hour_of_day", "a", "b", "c", "principal"}

// WriteCSV writes one row per sample, hour 0 first.
func (ts *TimeSeries) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesColumns); err != nil {
		return fmt.Errorf("writing series header: %w", err)
	}
	for i := 0; i < ts.Len(); i++ {
		row := []string{
			strconv.Itoa(i),
			strconv.Itoa(HourOfDay(i)),
			formatLevel(ts.A[i]),
			formatLevel(ts.B[i]),
			formatLevel(ts.C[i]),
			formatLevel(ts.Principal[i]),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing series row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
