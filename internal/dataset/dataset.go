// Package dataset keeps a CSV log of sampling outcomes for offline analysis.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/pkg/errors"
)

// Record is one logged sampling request.
type Record struct {
	Drawn          []sampler.Interval
	Classification sampler.Classification
}

// Logger appends rows to a dataset file. It is safe for concurrent use.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger returns a logger writing to path. The file is created on first Append.
func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

// Path returns the dataset file location.
func (l *Logger) Path() string {
	return l.path
}

// Append writes the drawn batch and its classification as a single row.
func (l *Logger) Append(outcome sampler.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create dataset directory %s", dir)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to open dataset")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{FormatIntervals(outcome.Drawn), string(outcome.Classification)}); err != nil {
		return errors.Wrap(err, "failed to write dataset row")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush dataset row")
	}
	return nil
}

// Records reads back every row logged so far. A missing file holds no rows.
func (l *Logger) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to open dataset")
	}
	defer f.Close()
	return ReadAll(f)
}

// ReadAll parses every row of a dataset file.
func ReadAll(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	var records []Record
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		drawn, err := ParseIntervals(row[0])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		class := sampler.Classification(row[1])
		if class != sampler.Unique && class != sampler.Repeated {
			return nil, fmt.Errorf("line %d: unknown classification %q", line, row[1])
		}
		records = append(records, Record{Drawn: drawn, Classification: class})
	}
}

// FormatIntervals renders intervals as "[(1.0, 6.0), (20.0, 25.0)]".
func FormatIntervals(intervals []sampler.Interval) string {
	parts := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		parts = append(parts, iv.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var pairPattern = regexp.MustCompile(`\(\s*([^,()]+?)\s*,\s*([^,()]+?)\s*\)`)

// ParseIntervals is the inverse of FormatIntervals.
func ParseIntervals(s string) ([]sampler.Interval, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("malformed interval list %q", s)
	}

	matches := pairPattern.FindAllStringSubmatch(s, -1)
	out := make([]sampler.Interval, 0, len(matches))
	for _, m := range matches {
		start, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad start %q", m[1])
		}
		end, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad end %q", m[2])
		}
		out = append(out, sampler.Interval{Start: start, End: end})
	}

	if len(out) == 0 && strings.TrimSpace(s[1:len(s)-1]) != "" {
		return nil, fmt.Errorf("malformed interval list %q", s)
	}
	return out, nil
}

// Summary counts records per classification.
func Summary(records []Record) map[sampler.Classification]int {
	counts := map[sampler.Classification]int{sampler.Unique: 0, sampler.Repeated: 0}
	for _, r := range records {
		counts[r.Classification]++
	}
	return counts
}
