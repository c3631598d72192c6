package diffview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderLineDiff(t *testing.T) {
	g := NewGenerator(false)

	old := "lr = 1e-4\nbatch = 16\nepochs = 10"
	updated := "lr = 2e-4\nbatch = 16\nepochs = 20"

	r := g.Render("train.py", old, updated)

	assert.Contains(t, r.Unified, "--- a/train.py")
	assert.Contains(t, r.Unified, "+++ b/train.py")
	assert.Contains(t, r.Unified, "-lr = 1e-4")
	assert.Contains(t, r.Unified, "+lr = 2e-4")
	assert.Contains(t, r.Unified, " batch = 16")
	assert.Equal(t, 2, r.Added)
	assert.Equal(t, 2, r.Deleted)
	assert.Equal(t, "+2 lines, -2 lines", r.Summary())
}

func TestRenderNewFile(t *testing.T) {
	g := NewGenerator(false)

	r := g.Render("config.py", "", "batch = 32\nlr = 1e-3")

	assert.Equal(t, 2, r.Added)
	assert.Equal(t, 0, r.Deleted)
	assert.Equal(t, "+2 lines", r.Summary())
}

func TestRenderNoChanges(t *testing.T) {
	g := NewGenerator(false)

	r := g.Render("train.py", "same", "same")
	assert.Empty(t, r.Unified)
	assert.Equal(t, "No changes", r.Summary())
}

func TestRenderBinary(t *testing.T) {
	g := NewGenerator(false)

	r := g.Render("model.bin", "a\x00b", "c\x00d")
	assert.Contains(t, r.Unified, "Binary file model.bin has changed")
	assert.Equal(t, "Binary file changed", r.Summary())
}

func TestRenderColorDisabledHasNoEscapes(t *testing.T) {
	g := NewGenerator(false)
	r := g.Render("a.py", "x = 1", "x = 2")
	assert.False(t, strings.Contains(r.Unified, "\x1b["), "bridge output must be plain text")
}
