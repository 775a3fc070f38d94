package cli

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"from", "to", "display", "limit", "top-k", "parse-dates", "output"} {
		assert.NotNil(t, exportCmd.Flags().Lookup(name), name)
	}
	output := exportCmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)
	assert.Equal(t, "results.csv", output.DefValue)
}

func TestExportCmd_WritesCSV(t *testing.T) {
	setupTestServices(t)
	seedArticles(t)
	path := filepath.Join(t.TempDir(), "surgery.csv")

	out, err := execute(t, "", "export", "robotic surgery", "--display", "titles", "--from", "2024-01-01", "-o", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 results to "+path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Robotic surgery outcomes", records[1][1])
}

func TestExportCmd_NoResults(t *testing.T) {
	setupTestServices(t)
	path := filepath.Join(t.TempDir(), "none.csv")

	out, err := execute(t, "", "export", "anything", "-o", path)

	require.NoError(t, err)
	assert.Contains(t, out, "No results to export.")
	assert.NoFileExists(t, path)
}

func TestExportCmd_InvalidRange(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "export", "surgery", "--from", "2024-06-01", "--to", "2024-01-01")

	require.Error(t, err)
}

func TestExportCmd_ServiceNotConfigured(t *testing.T) {
	setServices(t, nil, nil, nil, nil)

	_, err := execute(t, "", "export", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "export service not configured")
}
