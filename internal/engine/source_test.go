package engine

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	latin1 := filepath.Join(dir, "Latin.java")
	require.NoError(t, os.WriteFile(latin1, []byte("// caf\xe9\n"), 0o644))
	bom := filepath.Join(dir, "Bom.java")
	require.NoError(t, os.WriteFile(bom, []byte("\xef\xbb\xbfclass A {}"), 0o644))

	got, err := ReadSource(latin1, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "// café\n", got)

	got, err = ReadSource(bom, "")
	require.NoError(t, err)
	assert.Equal(t, "class A {}", got)

	_, err = ReadSource(latin1, "no-such-charset")
	assert.ErrorContains(t, err, "no-such-charset")

	_, err = ReadSource(filepath.Join(dir, "missing.java"), "UTF-8")
	assert.Error(t, err)
}

func TestForEachBounded(t *testing.T) {
	var inFlight, peak, total int32
	ForEachBounded(3, 50, func(i int) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		atomic.AddInt32(&total, 1)
		atomic.AddInt32(&inFlight, -1)
	})
	assert.Equal(t, int32(50), total)
	assert.LessOrEqual(t, peak, int32(3))
}
