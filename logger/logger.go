// Package logger provides the zerolog-backed logger shared by the proof
// system components.
//
// The root logger writes human-readable lines to stderr and stays at info
// level unless the binary is built with the debug tag; the proving and
// verification widgets obtain tagged subloggers through Widget. Test
// binaries log nothing so benchmark output stays clean.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/consensys/plonk-permutation/debug"
	"github.com/rs/zerolog"
)

var root zerolog.Logger

func init() {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}

	level := zerolog.InfoLevel
	if debug.Debug {
		level = zerolog.DebugLevel
	}
	root = zerolog.New(writer).Level(level).With().Timestamp().Logger()

	if !debug.Debug && strings.HasSuffix(os.Args[0], ".test") {
		root = zerolog.Nop()
	}
}

// Logger returns the root logger.
func Logger() zerolog.Logger {
	return root
}

// Widget returns a sublogger tagged with a widget name. The prover and
// verifier widgets log kernel entry and sizing through these.
func Widget(name string) zerolog.Logger {
	return root.With().Str("widget", name).Logger()
}

// SetOutput redirects the root logger (and subsequent Widget subloggers).
func SetOutput(w io.Writer) {
	root = root.Output(w)
}

// Set replaces the root logger entirely.
func Set(l zerolog.Logger) {
	root = l
}

// Disable silences all logging.
func Disable() {
	root = zerolog.Nop()
}
