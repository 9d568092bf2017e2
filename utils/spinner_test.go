package utils

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_StartStop(t *testing.T) {
	var out syncBuffer
	s := NewSpinner("detecting", time.Millisecond, false)
	s.SetWriter(&out)
	s.StopMsg = "done"

	s.Start()
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	s.Stop()

	got := out.String()
	assert.Contains(t, got, "detecting")
	assert.True(t, strings.HasSuffix(got, "done"))
	assert.Equal(t, 1, strings.Count(got, "done"))

	// No frame is printed once the spinner is stopped.
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, got, out.String())
}
