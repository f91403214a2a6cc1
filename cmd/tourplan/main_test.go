package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/heldkarp"
	"tour-planner/internal/models"
)

const squareCSV = `id,name,street,house_number,zip_code,city,latitude,longitude
1,Depot,Main St,1,10000,Alpha,0.0,0.0
2,North,North St,2,20000,Beta,0.1,0.0
3,NorthEast,Corner St,3,30000,Gamma,0.1,0.1
4,East,East St,4,40000,Delta,0.0,0.1
`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TOURPLAN_CONFIG", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSolveText(t *testing.T) {
	input := writeInput(t, squareCSV)

	out, err := execute(t, "solve", "--input", input, "--cache", "none")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Solution:\n"))
	assert.Contains(t, out, "Minimum possible distance is ")
	assert.Contains(t, out, "Or in short: \n1 Depot --> ")
	assert.Contains(t, out, "ID: 3\n  NorthEast\n  Corner St\n  3\n  30000\n  Gamma\n")
}

func TestSolveJSON(t *testing.T) {
	input := writeInput(t, squareCSV)

	out, err := execute(t, "solve", "-i", input, "--cache", "none", "--format", "json", "--workers", "2")
	require.NoError(t, err)

	var result models.TourResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Stops, 5)
	assert.Equal(t, 1, result.Sequence[0])
	assert.Equal(t, 1, result.Sequence[4])
	assert.Equal(t, 12, result.States)
	assert.Greater(t, result.TotalKm, 0.0)
}

func TestSolveRecordsHistory(t *testing.T) {
	input := writeInput(t, squareCSV)
	db := filepath.Join(t.TempDir(), "tours.db")

	out, err := execute(t, "solve", "-i", input, "--db", db, "--format", "json")
	require.NoError(t, err)
	var result models.TourResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	out, err = execute(t, "runs", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, result.RunID)
	assert.Contains(t, out, "1 of 1 runs")

	out, err = execute(t, "runs", "show", result.RunID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Run:      "+result.RunID)
	assert.Contains(t, out, "Nodes:    4")

	_, err = execute(t, "runs", "show", "missing", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSolveNoHistory(t *testing.T) {
	input := writeInput(t, squareCSV)
	db := filepath.Join(t.TempDir(), "tours.db")

	_, err := execute(t, "solve", "-i", input, "--db", db, "--no-history")
	require.NoError(t, err)

	out, err := execute(t, "runs", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 0 runs")
}

func TestSolveErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing input", args: []string{"solve", "-i", filepath.Join(dir, "nope.csv"), "--cache", "none"}, want: "nope.csv"},
		{name: "depot only", args: []string{"solve", "-i", writeInput(t, "h,h,h,h,h,h,h,h\n1,A,s,1,z,c,0,0\n"), "--cache", "none"}},
		{name: "bad format", args: []string{"solve", "--format", "xml"}, want: "xml"},
		{name: "bad cache", args: []string{"solve", "--cache", "redis"}, want: "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, strings.HasPrefix(errorMessage(err), "error: "))
		})
	}
}

func TestRunsNeedSQLite(t *testing.T) {
	_, err := execute(t, "runs", "list", "--cache", "none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestCacheClear(t *testing.T) {
	input := writeInput(t, squareCSV)
	cacheFile := filepath.Join(t.TempDir(), "distances.json")

	_, err := execute(t, "solve", "-i", input, "--cache", "file", "--db", cacheFile)
	require.NoError(t, err)
	before, err := os.ReadFile(cacheFile)
	require.NoError(t, err)
	assert.Contains(t, string(before), "haversine")

	out, err := execute(t, "cache", "clear", "--cache", "file", "--db", cacheFile)
	require.NoError(t, err)
	assert.Equal(t, "distance cache cleared\n", out)

	after, err := os.ReadFile(cacheFile)
	require.NoError(t, err)
	assert.NotContains(t, string(after), "haversine")

	_, err = execute(t, "cache", "clear", "--cache", "none")
	assert.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	defect := &heldkarp.InconsistencyError{Vertex: 2, Reason: "unset entry"}

	assert.True(t, strings.HasPrefix(errorMessage(defect), "internal error: "))
	assert.True(t, strings.HasPrefix(errorMessage(errors.Join(errors.New("solve"), defect)), "internal error: "))
	assert.Equal(t, "error: boom", errorMessage(errors.New("boom")))
}
