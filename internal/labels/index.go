// Package labels loads the transportation-mode annotations of a user.
package labels

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jengzang/geolife-backend-go/internal/models"
)

// TimeLayout is the timestamp layout used by labels.txt
const TimeLayout = "2006/01/02 15:04:05"

// Index holds the labels of one user in file order
type Index struct {
	entries []models.Label
}

// NewIndex builds an index from already parsed labels
func NewIndex(entries ...models.Label) *Index {
	return &Index{entries: entries}
}

// Read parses a label file. The first line is a header.
func Read(r io.Reader) (*Index, error) {
	sc := bufio.NewScanner(r)
	idx := &Index{}

	for line := 0; sc.Scan(); line++ {
		if line == 0 {
			continue
		}
		if label, ok := ParseLine(sc.Text()); ok {
			idx.entries = append(idx.entries, label)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	return idx, nil
}

// Load reads the label file at path. A missing file yields an empty index.
func Load(path string) (*Index, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open labels %s: %w", path, err)
	}
	defer file.Close()

	return Read(file)
}

// ParseLine converts one tab separated label line
func ParseLine(line string) (models.Label, bool) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 3 {
		return models.Label{}, false
	}

	start, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(fields[0]), time.UTC)
	if err != nil {
		return models.Label{}, false
	}
	end, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(fields[1]), time.UTC)
	if err != nil {
		return models.Label{}, false
	}

	return models.Label{
		Start: start,
		End:   end,
		Mode:  strings.TrimSpace(fields[2]),
	}, true
}

// Match returns the mode of the first label whose interval is exactly
// [start, end]. Overlapping or containing intervals do not match.
func (idx *Index) Match(start, end time.Time) (string, bool) {
	if idx == nil {
		return "", false
	}
	for _, l := range idx.entries {
		if l.Start.Equal(start) && l.End.Equal(end) {
			return l.Mode, true
		}
	}
	return "", false
}

// Len returns the number of labels
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}
