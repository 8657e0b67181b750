package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetLogger() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestVerboseToggle(t *testing.T) {
	defer resetLogger()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_WhenVerbose(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("processed %d files", 3)
	Info("run %s complete", "abc")
	Warn("extraction failed for %s", "a.pdf")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] processed 3 files\n")
	assert.Contains(t, out, "[INFO] run abc complete\n")
	assert.Contains(t, out, "[WARN] extraction failed for a.pdf\n")
}

func TestSilent_WhenNotVerbose(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")

	assert.Zero(t, buf.Len())
}

func TestConcurrentAccess(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	SetOutput(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(true)
			Debug("worker %d", n)
			IsVerbose()
			SetVerbose(false)
		}(i)
	}
	wg.Wait()
}
