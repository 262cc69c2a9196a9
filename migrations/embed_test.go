package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_PairsUpAndDown(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "000001_create_appointments.up.sql")
	assert.Contains(t, files, "000001_create_appointments.down.sql")
	assert.Contains(t, files, "000002_create_status_events.up.sql")
	assert.Contains(t, files, "000002_create_status_events.down.sql")
}
