package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ZacxDev/clip-remixer/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AppendCreatesFileAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dataset.csv")
	l := NewLogger(path)

	require.NoError(t, l.Append(sampler.Outcome{
		Classification: sampler.Unique,
		Drawn:          []sampler.Interval{{Start: 1, End: 6}, {Start: 1, End: 6}, {Start: 20, End: 25}},
	}))
	require.NoError(t, l.Append(sampler.Outcome{
		Classification: sampler.Repeated,
		Drawn:          []sampler.Interval{{Start: 3.4, End: 8.4}},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"\"[(1.0, 6.0), (1.0, 6.0), (20.0, 25.0)]\",Unique\n\"[(3.4, 8.4)]\",Repeated\n",
		string(data))
}

func TestReadAll_RoundTripsLoggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	l := NewLogger(path)
	drawn := []sampler.Interval{{Start: 0.3, End: 5.3}, {Start: 12, End: 17}}
	require.NoError(t, l.Append(sampler.Outcome{Classification: sampler.Repeated, Drawn: drawn}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := ReadAll(f)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, sampler.Repeated, records[0].Classification)
	require.Equal(t, drawn, records[0].Drawn)
}

func TestReadAll_RejectsUnknownClassification(t *testing.T) {
	_, err := ReadAll(strings.NewReader("\"[(1.0, 6.0)]\",Maybe\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
}

func TestParseIntervals(t *testing.T) {
	tests := []struct {
		in      string
		want    []sampler.Interval
		wantErr bool
	}{
		{"[]", []sampler.Interval{}, false},
		{"[(1.0, 6.0)]", []sampler.Interval{{Start: 1, End: 6}}, false},
		{"[(1.2, 6.200000000000001), (9.0,14.0)]", []sampler.Interval{{Start: 1.2, End: 6.200000000000001}, {Start: 9, End: 14}}, false},
		{"(1.0, 6.0)", nil, true},
		{"[garbage]", nil, true},
		{"[(a, 6.0)]", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIntervals(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	l := NewLogger(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := float64(i)
			assert.NoError(t, l.Append(sampler.Outcome{
				Classification: sampler.Unique,
				Drawn:          []sampler.Interval{{Start: start, End: start + 5}},
			}))
		}(i)
	}
	wg.Wait()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := ReadAll(f)
	require.NoError(t, err)
	require.Len(t, records, 20)
	require.Equal(t, 20, Summary(records)[sampler.Unique])
	require.Equal(t, 0, Summary(records)[sampler.Repeated])
}

func TestLogger_RecordsAndSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats", "dataset.csv")
	l := NewLogger(path)
	require.Equal(t, path, l.Path())

	records, err := l.Records()
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, map[sampler.Classification]int{sampler.Unique: 0, sampler.Repeated: 0}, Summary(records))

	for _, c := range []sampler.Classification{sampler.Unique, sampler.Repeated, sampler.Unique} {
		require.NoError(t, l.Append(sampler.Outcome{Classification: c, Drawn: []sampler.Interval{{Start: 2, End: 7}}}))
	}
	records, err = l.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, map[sampler.Classification]int{sampler.Unique: 2, sampler.Repeated: 1}, Summary(records))
}
