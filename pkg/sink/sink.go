// Package sink provides the ports.Sink implementations that feed the log
// buffer: a plain text sink for hosts that render their own UI and a
// termenv-styled variant for interactive terminal runs.
package sink

import (
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/capsid/pkg/domain"
)

// Appender receives every flushed piece of log text. *logbuf.Buffer
// satisfies it; adapters below fan out or bridge to io.Writer.
type Appender interface {
	Append(text string)
}

// Option configures a Log.
type Option func(*Log)

// WithObserver registers a callback invoked with the byte length of every
// emitted entry. Used to feed log-volume metrics without coupling the sink
// to a metrics registry.
func WithObserver(fn func(bytes int)) Option {
	return func(l *Log) {
		l.observe = fn
	}
}

// WithProfile enables termenv styling using the given color profile. With
// termenv.Ascii the output stays plain, so callers can pass the detected
// profile unconditionally.
func WithProfile(p termenv.Profile) Option {
	return func(l *Log) {
		l.profile = p
		l.styled = true
	}
}

// Log writes structured entries to an Appender using a fixed glyph
// vocabulary. The zero styling mode emits plain UTF-8 text; the styled mode
// wraps the same text in ANSI colors. Standard 8-color palette for broad
// terminal compatibility.
type Log struct {
	out     Appender
	observe func(int)
	profile termenv.Profile
	styled  bool
}

// New creates a sink writing to out.
func New(out Appender, opts ...Option) *Log {
	l := &Log{out: out}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Write appends raw text verbatim.
func (l *Log) Write(text string) {
	l.emit(text)
}

// Stage writes a banner announcing a major pipeline stage.
func (l *Log) Stage(name string) {
	if l.styled {
		banner := l.profile.String(" " + strings.ToUpper(name) + " ").Foreground(l.profile.Color("4")).Reverse().Bold()
		l.emit("\n" + banner.String() + "\n\n")
		return
	}
	l.emit("\n--- " + name + " ---\n")
}

// Step writes a notice line for a step within a stage.
func (l *Log) Step(text string) {
	l.line("❯ ", text, "4", true)
}

// Info writes an informational line.
func (l *Log) Info(text string) {
	l.line("ℹ ", text, "7", false)
}

// Success writes a success line.
func (l *Log) Success(text string) {
	l.line("✓ ", text, "2", true)
}

// Warning writes a warning line.
func (l *Log) Warning(text string) {
	l.line("⚠ ", text, "3", true)
}

// Error writes an error line.
func (l *Log) Error(text string) {
	l.line("✘ ", text, "1", true)
}

// Command echoes a command about to be executed.
func (l *Log) Command(cmd domain.Command) {
	if l.styled {
		styled := l.profile.String("$ " + cmd.String()).Faint()
		l.emit("  " + styled.String() + "\n")
		return
	}
	l.emit("  $ " + cmd.String() + "\n")
}

func (l *Log) line(glyph, text, color string, bold bool) {
	if l.styled {
		s := l.profile.String(text).Foreground(l.profile.Color(color))
		if bold {
			s = s.Bold()
		} else {
			s = s.Faint()
		}
		l.emit(glyph + s.String() + "\n")
		return
	}
	l.emit(glyph + text + "\n")
}

func (l *Log) emit(text string) {
	if text == "" {
		return
	}
	if l.observe != nil {
		l.observe(len(text))
	}
	l.out.Append(text)
}

// WriterAppender bridges an Appender to an io.Writer, e.g. os.Stdout for
// interactive runs. Write errors are dropped; the log buffer remains the
// durable copy.
type WriterAppender struct {
	W io.Writer
}

// Append implements Appender.
func (a WriterAppender) Append(text string) {
	_, _ = io.WriteString(a.W, text)
}

// AppenderFunc adapts a plain function to the Appender interface.
type AppenderFunc func(text string)

// Append implements Appender.
func (f AppenderFunc) Append(text string) {
	f(text)
}

// Multi fans every append out to all given appenders in order.
func Multi(outs ...Appender) Appender {
	return multiAppender(outs)
}

type multiAppender []Appender

func (m multiAppender) Append(text string) {
	for _, out := range m {
		out.Append(text)
	}
}
