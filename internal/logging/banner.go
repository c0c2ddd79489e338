package logging

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	phaseColor  = color.New(color.FgCyan, color.Bold)
	resultColor = color.New(color.FgGreen, color.Bold)
	errorColor  = color.New(color.FgRed, color.Bold)
)

// Phase prints a colored console banner for the start of an encoding
// phase, mirroring the Python original's common.colourinfo("Encoding
// scheduler...") notices (modelchecker.py's encodeScheduler,
// encodeStuttering, truth, and non-quantified-formula phases).
func Phase(msg string) {
	_, _ = phaseColor.Fprintln(os.Stdout, msg)
}

// Result prints a colored banner for a successful verdict ("The
// property HOLDS!" in the Python original's printResult).
func Result(format string, args ...any) {
	_, _ = resultColor.Fprintln(os.Stdout, fmt.Sprintf(format, args...))
}

// Error prints a colored banner for a failed verdict or solver error
// ("The property DOES NOT hold!" / "Solver returns unknown").
func Error(format string, args ...any) {
	_, _ = errorColor.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
}
