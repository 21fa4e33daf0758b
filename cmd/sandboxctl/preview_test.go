package main

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"
)

func TestRun_PreviewInvalidPort(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"preview", "not-a-port"}, &stdout, &stderr)
	assert.Equal(t, code, 1)
}

func TestRun_PreviewRequiresPortArg(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"preview"}, &stdout, &stderr)
	assert.Equal(t, code, 1)
}
