package trajectory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `Geolife trajectory
WGS 84
Altitude is in Feet
Reserved 3
0,2,255,My Track,0,0,2,8421376
0
`

func TestParseSkipsHeaderAndKeepsOrder(t *testing.T) {
	content := header +
		"39.984702,116.318417,0,492,39744.1201851852,2008-10-23,02:53:04\n" +
		"39.984683,116.31845,0,-777,39744.1202546296,2008-10-23,02:53:10\n" +
		"39.984686,116.318417,0,491,39744.1203125,2008-10-23,02:53:15\n"

	points, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, points, 3)

	first := points[0]
	assert.Equal(t, 39.984702, first.Lat)
	assert.Equal(t, 116.318417, first.Lon)
	require.NotNil(t, first.Altitude)
	assert.Equal(t, 492.0, *first.Altitude)
	require.NotNil(t, first.ElapsedDays)
	assert.InDelta(t, 39744.1201851852, *first.ElapsedDays, 1e-9)
	assert.Equal(t, time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC), first.Timestamp)

	assert.Nil(t, points[1].Altitude)

	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp))
	assert.True(t, points[1].Timestamp.Before(points[2].Timestamp))
}

func TestParseSkipsMalformedLines(t *testing.T) {
	content := header +
		"39.9,116.3,0,100,39744.1,2008-10-23,02:53:04\n" +
		"39.9,116.3,0,100,39744.1,2008-10-23\n" + // too few fields
		"39.9,116.3,0,100,39744.1,2008/10/23,02:53:05\n" + // wrong date layout
		"39.9,116.3,0,100,39744.1,2008-10-23,25:61:00\n" + // invalid clock
		"\n" +
		"39.9,116.3,0,100,39744.1,2008-10-23,02:53:06\r\n"

	points, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 4, points[0].Timestamp.Second())
	assert.Equal(t, 6, points[1].Timestamp.Second())
}

func TestParseHeaderOnly(t *testing.T) {
	points, err := Parse(strings.NewReader(header))
	require.NoError(t, err)
	assert.Empty(t, points)

	points, err = Parse(strings.NewReader("just one line\n"))
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestParseLineIsIdempotent(t *testing.T) {
	line := "39.984702,116.318417,0,492,39744.1201851852,2008-10-23,02:53:04"

	a, ok := ParseLine(line)
	require.True(t, ok)
	b, ok := ParseLine(line)
	require.True(t, ok)

	assert.Equal(t, a, b)
}

func TestSamplesStopsEarlyAndIsNotRestartable(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(header)
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "39.9,116.3,0,100,39744.1,2008-10-23,02:53:%02d\n", i)
	}

	reader := NewReader(strings.NewReader(sb.String()))
	seen := 0
	for range reader.Samples() {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)

	again := 0
	for range reader.Samples() {
		again++
	}
	assert.Zero(t, again)
	assert.NoError(t, reader.Err())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20081023025304.plt")
	content := header + "39.9,116.3,0,100,39744.1,2008-10-23,02:53:04\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	points, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, points, 1)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.plt"))
	assert.Error(t, err)
}
