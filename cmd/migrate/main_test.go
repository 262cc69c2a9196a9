package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/studio-pulse/internal/config"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args    []string
		command string
		version int
		wantErr bool
	}{
		{args: nil, command: "up"},
		{args: []string{"up"}, command: "up"},
		{args: []string{"down"}, command: "down"},
		{args: []string{"force", "3"}, command: "force", version: 3},
		{args: []string{"force"}, wantErr: true},
		{args: []string{"force", "three"}, wantErr: true},
		{args: []string{"sideways"}, wantErr: true},
	}
	for _, tt := range tests {
		command, version, err := parseArgs(tt.args)
		if tt.wantErr {
			assert.Error(t, err, "args=%v", tt.args)
			continue
		}
		require.NoError(t, err, "args=%v", tt.args)
		assert.Equal(t, tt.command, command)
		assert.Equal(t, tt.version, version)
	}
}

func TestRunRequiresDatabaseURL(t *testing.T) {
	err := run(&appconfig.Config{}, nil, logging.Discard())
	assert.EqualError(t, err, "DATABASE_URL is required")
}
