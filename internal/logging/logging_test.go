package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	New("table", &buf, true).Warnf("fetch failed: %s", "boom")
	assert.Contains(t, buf.String(), "fetch failed: boom")

	buf.Reset()
	New("table", &buf, false).Warnf("fetch failed: %s", "boom")
	assert.Empty(t, buf.String())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard("server").Errorf("request failed: %v", "x") })
}
