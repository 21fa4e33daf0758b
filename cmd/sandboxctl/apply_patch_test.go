package main

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"
)

func TestRun_ApplyPatchMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"apply-patch", "--file", "/no/such/patch/file.patch"}, &stdout, &stderr)
	assert.Equal(t, code, 1)
}
