package lock

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandboxctl.lock")

	inst, err := Acquire(path)
	assert.NilError(t, err)
	assert.Assert(t, inst != nil)

	_, statErr := os.Stat(path)
	assert.NilError(t, statErr)

	inst.Release()
	_, statErr = os.Stat(path)
	assert.Assert(t, os.IsNotExist(statErr))
}

func TestAcquire_AlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandboxctl.lock")

	first, err := Acquire(path)
	assert.NilError(t, err)
	defer first.Release()

	_, err = Acquire(path)
	assert.ErrorContains(t, err, "already held")
}

func TestRelease_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandboxctl.lock")
	inst, err := Acquire(path)
	assert.NilError(t, err)

	inst.Release()
	inst.Release()
}
