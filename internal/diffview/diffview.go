// Package diffview renders proposed file edits as unified-style diffs for
// the Bridge.
package diffview

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Result is one rendered file diff.
type Result struct {
	Unified string
	Added   int
	Deleted int
}

// Generator produces unified diffs. Color is off for Bridge output and on
// for terminal banners.
type Generator struct {
	colorEnabled bool
}

func NewGenerator(colorEnabled bool) *Generator {
	return &Generator{colorEnabled: colorEnabled}
}

// Render diffs oldContent against newContent line by line. When oldContent
// is empty the whole file shows as added, which covers files the proposal
// introduces.
func (g *Generator) Render(filename, oldContent, newContent string) *Result {
	if oldContent == newContent {
		return &Result{}
	}
	if isBinary(oldContent) || isBinary(newContent) {
		return &Result{Unified: fmt.Sprintf("Binary file %s has changed", filename)}
	}

	dmp := diffmatchpatch.New()
	oldRunes, newRunes, lines := dmp.DiffLinesToRunes(oldContent, newContent)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(oldRunes, newRunes, false), lines)

	var b strings.Builder
	b.WriteString(g.colorize("--- a/"+filename+"\n", color.FgRed))
	b.WriteString(g.colorize("+++ b/"+filename+"\n", color.FgGreen))

	added, deleted := 0, 0
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				b.WriteString(g.colorize("+"+line+"\n", color.FgGreen))
				added++
			case diffmatchpatch.DiffDelete:
				b.WriteString(g.colorize("-"+line+"\n", color.FgRed))
				deleted++
			default:
				b.WriteString(" " + line + "\n")
			}
		}
	}

	return &Result{Unified: b.String(), Added: added, Deleted: deleted}
}

// Summary returns a short "+N lines, -M lines" description.
func (r *Result) Summary() string {
	if r.Added == 0 && r.Deleted == 0 {
		if r.Unified == "" {
			return "No changes"
		}
		return "Binary file changed"
	}
	parts := []string{}
	if r.Added > 0 {
		parts = append(parts, fmt.Sprintf("+%d lines", r.Added))
	}
	if r.Deleted > 0 {
		parts = append(parts, fmt.Sprintf("-%d lines", r.Deleted))
	}
	return strings.Join(parts, ", ")
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func (g *Generator) colorize(text string, attr color.Attribute) string {
	if !g.colorEnabled {
		return text
	}
	return color.New(attr).Sprint(text)
}

func isBinary(content string) bool {
	limit := len(content)
	if limit > 8000 {
		limit = 8000
	}
	for i := 0; i < limit; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
