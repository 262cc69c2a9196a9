package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/studio-pulse/internal/automation"
	"github.com/wolfman30/studio-pulse/internal/status"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeAppointments(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appointments.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestEvaluate_InSession(t *testing.T) {
	path := writeAppointments(t, `[
		{"id":"a1","date":"2024-05-15","startTime":"10:00","endTime":"11:00","status":"Upcoming"},
		{"id":"a2","date":"2024-05-15","startTime":"15:00","endTime":"16:00","status":"Upcoming"}
	]`)

	out, err := execute(t, "evaluate", "-f", path, "--at", "2024-05-15T10:30:00Z")
	require.NoError(t, err)

	var snap automation.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, status.Busy, snap.Status)
	assert.True(t, snap.InSession)
	assert.Equal(t, automation.InSessionLabel, snap.Display)
	require.NotNil(t, snap.Next)
	assert.Equal(t, "a1", snap.Next.AppointmentID)
}

func TestEvaluate_InvalidFlags(t *testing.T) {
	path := writeAppointments(t, `[]`)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file", args: []string{"evaluate"}},
		{name: "bad instant", args: []string{"evaluate", "-f", path, "--at", "tomorrow"}},
		{name: "bad window", args: []string{"evaluate", "-f", path, "--start", "20", "--end", "8"}},
		{name: "bad range", args: []string{"evaluate", "-f", path, "--kpi-range", "This Year"}},
		{name: "bad status", args: []string{"evaluate", "-f", path, "--status", "Napping"}},
		{name: "bad timezone", args: []string{"evaluate", "-f", path, "--tz", "Nowhere/City"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRules_ListsEveryRule(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+len(status.DefaultRules())+len(status.LegacyRules()))
	assert.True(t, strings.HasPrefix(lines[0], "PIPELINE"))
	for _, r := range status.DefaultRules() {
		assert.Contains(t, out, r.ID)
	}
}
