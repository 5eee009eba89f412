package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformsCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTransformsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	for _, name := range []string{"reverse", "palindrome", "euclid", "warp", "record", "apply"} {
		assert.Contains(t, out, name)
	}

	transforms, messages, found := strings.Cut(out, "messages:")
	require.True(t, found, "builtin header present")
	assert.Contains(t, transforms, "reverse")
	assert.NotContains(t, transforms, "start/stop recording")
	assert.Contains(t, messages, "start/stop recording")
}
