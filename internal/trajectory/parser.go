// Package trajectory reads Geolife .plt trajectory logs.
//
// A log starts with six header lines followed by one sample per line:
//
//	lat,lon,0,altitude,elapsed_days,date,time
//	39.984702,116.318417,0,492,39744.1201851852,2008-10-23,02:53:04
package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/models"
)

const (
	// HeaderLines is the number of leading lines that carry no samples
	HeaderLines = 6
	// TimeLayout is the layout of the joined date and time fields
	TimeLayout = "2006-01-02 15:04:05"

	minFields = 7
)

// Reader streams samples out of one trajectory log
type Reader struct {
	sc   *bufio.Scanner
	err  error
	done bool
}

// NewReader creates a Reader over r
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc}
}

// Samples yields the valid samples of the log in file order. Malformed
// lines are skipped. The sequence can be ranged over once; check Err
// afterwards for I/O failures.
func (r *Reader) Samples() iter.Seq[models.TrackPoint] {
	return func(yield func(models.TrackPoint) bool) {
		if r.done {
			return
		}
		r.done = true

		for line := 0; r.sc.Scan(); line++ {
			if line < HeaderLines {
				continue
			}
			tp, ok := ParseLine(r.sc.Text())
			if !ok {
				continue
			}
			if !yield(tp) {
				return
			}
		}
		r.err = r.sc.Err()
	}
}

// Err returns the first read error encountered by Samples
func (r *Reader) Err() error {
	return r.err
}

// ParseLine converts one data line into a track point.
// The second return value is false for malformed lines.
func ParseLine(line string) (models.TrackPoint, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < minFields {
		return models.TrackPoint{}, false
	}

	ts, err := time.ParseInLocation(TimeLayout, fields[5]+" "+fields[6], time.UTC)
	if err != nil {
		return models.TrackPoint{}, false
	}

	lat, err := parseFloat(fields[0])
	if err != nil {
		return models.TrackPoint{}, false
	}
	lon, err := parseFloat(fields[1])
	if err != nil {
		return models.TrackPoint{}, false
	}

	tp := models.TrackPoint{
		Lat:       lat,
		Lon:       lon,
		Timestamp: ts,
	}

	// fields[2] is always 0 in the source format
	alt, err := parseFloat(fields[3])
	if err != nil {
		return models.TrackPoint{}, false
	}
	if alt != models.AltitudeUnknown {
		tp.Altitude = &alt
	}

	days, err := parseFloat(fields[4])
	if err != nil {
		return models.TrackPoint{}, false
	}
	tp.ElapsedDays = &days

	return tp, true
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Parse reads every valid sample of a trajectory log
func Parse(r io.Reader) ([]models.TrackPoint, error) {
	reader := NewReader(r)

	var points []models.TrackPoint
	for tp := range reader.Samples() {
		points = append(points, tp)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trajectory: %w", err)
	}

	return points, nil
}

// ParseFile opens and parses a trajectory log
func ParseFile(path string) ([]models.TrackPoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trajectory %s: %w", path, err)
	}
	defer file.Close()

	return Parse(file)
}
