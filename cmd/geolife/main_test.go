package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateFailsWhenStoreIsUnreachable(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	bad := filepath.Join(t.TempDir(), "missing", "geolife.db")

	err := rootCommand().Run(context.Background(), []string{"geolife", "--db-path", bad, "--log-level", "error", "migrate"})
	assert.ErrorContains(t, err, "failed to ping database")
}

func TestMigrateCreatesStore(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	path := filepath.Join(t.TempDir(), "geolife.db")

	err := rootCommand().Run(context.Background(), []string{"geolife", "--db-path", path, "--log-level", "error", "migrate"})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
