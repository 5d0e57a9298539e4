package covergate

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryClaim(t *testing.T) {
	gate := New()
	path := filepath.Join(t.TempDir(), "Frontal.jpg")

	assert.True(t, gate.TryClaim(path))
	assert.False(t, gate.TryClaim(path))

	// The placeholder must exist and be empty.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestTryClaimExistingFile(t *testing.T) {
	gate := New()
	path := filepath.Join(t.TempDir(), "Frontal.jpg")
	require.NoError(t, os.WriteFile(path, []byte("already here"), 0o644))

	assert.False(t, gate.TryClaim(path))
}

func TestTryClaimIndependentPaths(t *testing.T) {
	gate := New()
	dir := t.TempDir()

	assert.True(t, gate.TryClaim(filepath.Join(dir, "a.jpg")))
	assert.True(t, gate.TryClaim(filepath.Join(dir, "b.jpg")))
}

// Exactly one of N concurrent workers may win the claim for a directory.
func TestTryClaimConcurrent(t *testing.T) {
	gate := New()
	path := filepath.Join(t.TempDir(), "Frontal.jpg")

	const workers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.TryClaim(path) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
