package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const pltHeader = `Geolife trajectory
WGS 84
Altitude is in Feet
Reserved 3
0,2,255,My Track,0,0,2,8421376
0
`

// pltContent renders n valid samples one second apart starting at start,
// followed by one malformed line
func pltContent(start time.Time, n int) string {
	var sb strings.Builder
	sb.WriteString(pltHeader)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Second)
		fmt.Fprintf(&sb, "39.9%03d,116.3,0,%d,39744.1,%s,%s\n", i%1000, 100+i, ts.Format("2006-01-02"), ts.Format("15:04:05"))
	}
	sb.WriteString("39.9,116.3,0,100\n")
	return sb.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func labelLine(start, end time.Time, mode string) string {
	return fmt.Sprintf("%s\t%s\t%s\n", start.Format("2006/01/02 15:04:05"), end.Format("2006/01/02 15:04:05"), mode)
}
