package sink

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/logbuf"
)

func TestPlainSinkGlyphs(t *testing.T) {
	buf := logbuf.New()
	s := New(buf)

	s.Stage("Assembly (Unicycler)")
	s.Step("Mode: Paired-end Short-read Assembly")
	s.Info("Output directory: /tmp/phage_project")
	s.Success("Assembly complete")
	s.Warning("QUAST reported issues")
	s.Error("Assembly file not found")
	s.Command(domain.Command{Program: "unicycler", Args: []string{"-1", "r1.fq", "-o", "out"}})
	s.Write("raw process output\r")

	text, _ := buf.Snapshot()
	assert.Contains(t, text, "\n--- Assembly (Unicycler) ---\n")
	assert.Contains(t, text, "❯ Mode: Paired-end Short-read Assembly\n")
	assert.Contains(t, text, "ℹ Output directory: /tmp/phage_project\n")
	assert.Contains(t, text, "✓ Assembly complete\n")
	assert.Contains(t, text, "⚠ QUAST reported issues\n")
	assert.Contains(t, text, "✘ Assembly file not found\n")
	assert.Contains(t, text, "  $ unicycler -1 r1.fq -o out\n")
	assert.Contains(t, text, "raw process output\r")
	assert.NotContains(t, text, "\x1b[", "plain sink must not emit ANSI sequences")
}

func TestStyledSinkKeepsGlyphsAndText(t *testing.T) {
	buf := logbuf.New()
	s := New(buf, WithProfile(termenv.ANSI))

	s.Stage("Annotation (Pharokka)")
	s.Success("Databases found")

	text, _ := buf.Snapshot()
	assert.Contains(t, text, "ANNOTATION (PHAROKKA)")
	assert.Contains(t, text, "✓ ")
	assert.Contains(t, text, "Databases found")
}

func TestObserverCountsBytes(t *testing.T) {
	buf := logbuf.New()
	var seen int
	s := New(buf, WithObserver(func(n int) { seen += n }))

	s.Write("12345")
	s.Info("hi")

	text, length := buf.Snapshot()
	assert.Equal(t, length, seen)
	assert.Equal(t, len(text), seen)
}

func TestMultiAppenderFansOut(t *testing.T) {
	buf := logbuf.New()
	var tee strings.Builder
	s := New(Multi(buf, WriterAppender{W: &tee}))

	s.Step("Project name: phage_project")

	fromBuf, _ := buf.Snapshot()
	assert.Equal(t, fromBuf, tee.String())
	assert.Equal(t, "❯ Project name: phage_project\n", tee.String())
}
