package logbuf

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAppendGrowsMonotonically(t *testing.T) {
	b := New()

	prev := b.Len()
	for i := 0; i < 10; i++ {
		b.Append(fmt.Sprintf("line %d\n", i))
		cur := b.Len()
		assert.Greater(t, cur, prev)
		prev = cur
	}

	text, length := b.Snapshot()
	assert.Equal(t, length, len(text))
	assert.Contains(t, text, "line 0\n")
	assert.Contains(t, text, "line 9\n")
}

func TestBufferSliceConcatenation(t *testing.T) {
	b := New()
	b.Append("❯ Project name: phage_project\n")
	b.Append("\n--- Read QC (FastQC) ---\n")
	b.Append("Analysis complete ✓\n")

	full, length := b.Snapshot()

	// Adjacent slices must concatenate to the covering slice for any cut
	// points, with no gaps or duplication.
	for a := 0; a <= length; a++ {
		for c := a; c <= length; c += 7 {
			mid := (a + c) / 2
			left := full[a:mid]
			right := full[mid:c]
			assert.Equal(t, full[a:c], left+right)
		}
	}

	// Since must agree with the snapshot's tail.
	assert.Equal(t, full, b.Since(0))
	assert.Equal(t, full[10:], b.Since(10))
}

func TestBufferSinceClamps(t *testing.T) {
	b := New()
	b.Append("short\n")

	t.Run("Beyond Length", func(t *testing.T) {
		assert.Equal(t, "", b.Since(b.Len()))
		assert.Equal(t, "", b.Since(b.Len()+100))
	})

	t.Run("Negative", func(t *testing.T) {
		assert.Equal(t, "short\n", b.Since(-5))
	})
}

func TestBufferReset(t *testing.T) {
	b := New()
	b.Append("old run output\n")
	require.NotZero(t, b.Len())

	b.Reset()

	assert.Zero(t, b.Len())
	text, length := b.Snapshot()
	assert.Empty(t, text)
	assert.Zero(t, length)

	// A poller holding an offset from before the reset self-corrects.
	assert.Equal(t, "", b.Since(100))

	b.Append("new run\n")
	assert.Equal(t, "new run\n", b.Since(0))
}

func TestBufferConcurrentReadersSeeConsistentPrefixes(t *testing.T) {
	b := New()

	const appends = 500
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < appends; i++ {
			b.Append("x")
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			prev := 0
			for i := 0; i < 200; i++ {
				text, length := b.Snapshot()
				assert.Equal(t, length, len(text))
				assert.GreaterOrEqual(t, length, prev)
				prev = length
			}
		}()
	}

	wg.Wait()
	readers.Wait()

	assert.Equal(t, appends, b.Len())
}
