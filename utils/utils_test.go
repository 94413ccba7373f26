package utils

import (
	"os"
	"testing"

	"imagedup/duplicates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"imagedup"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestParseArgumentsCommandAndFlags(t *testing.T) {
	withArgs(t, "check", "--image=/tmp/upload.png", "--collection=holiday", "--debug")

	args := ParseArguments()

	assert.Equal(t, "check", args["command"])
	assert.Equal(t, "/tmp/upload.png", args["image"])
	assert.Equal(t, "holiday", args["collection"])
	assert.Equal(t, "true", args["debug"])
}

func TestParseArgumentsSpaceSeparatedValues(t *testing.T) {
	withArgs(t, "index", "--folder", "/tmp/images", "--database", "test.db")

	args := ParseArguments()

	assert.Equal(t, "index", args["command"])
	assert.Equal(t, "/tmp/images", args["folder"])
	assert.Equal(t, "test.db", args["database"])
}

func TestParseArgumentsNoCommand(t *testing.T) {
	withArgs(t, "--folder=/tmp/images")

	args := ParseArguments()

	_, hasCommand := args["command"]
	assert.False(t, hasCommand)
}

func TestParseThreshold(t *testing.T) {
	value, err := ParseThreshold("0.85")
	require.NoError(t, err)
	assert.Equal(t, 0.85, value)

	for _, bad := range []string{"1.5", "-0.1", "high", ""} {
		value, err := ParseThreshold(bad)
		assert.Error(t, err, "input %q", bad)
		assert.Equal(t, duplicates.DefaultThreshold, value)
	}
}
