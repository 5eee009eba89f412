package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEuclidCommand_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewEuclidCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"3", "8"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "x.x..x..\n0.000000\n0.250000\n0.625000\n", buf.String())
}

func TestEuclidCommand_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewEuclidCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"9", "4"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string       `json:"status"`
		Data   EuclidResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Hits, "hits clamped to steps")
	assert.Equal(t, 4, resp.Data.Steps)
	assert.Len(t, resp.Data.Positions, 4)
}

func TestEuclidCommand_BadArgs(t *testing.T) {
	cmd := NewEuclidCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"three", "8"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
