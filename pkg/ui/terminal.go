package ui

import (
	"fmt"
	"sync/atomic"
)

// ASCIILogo is printed at the top of interactive runs
const ASCIILogo = `
    ╔════════════════════════════════════════════════════════════╗
    ║ ██╗     ██╗███████╗ ██████╗██████╗  █████╗ ██████╗ ███████╗ ║
    ║ ██║     ██║██╔════╝██╔════╝██╔══██╗██╔══██╗██╔══██╗██╔════╝ ║
    ║ ██║     ██║███████╗██║     ██████╔╝███████║██████╔╝█████╗   ║
    ║ ██║     ██║╚════██║██║     ██╔══██╗██╔══██║██╔═══╝ ██╔══╝   ║
    ║ ███████╗██║███████║╚██████╗██║  ██║██║  ██║██║     ███████╗ ║
    ║ ╚══════╝╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚══════╝ ║
    ║              BATCHED FEED EXTRACTION FOR LINKEDIN           ║
    ╚════════════════════════════════════════════════════════════╝
`

var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var quiet atomic.Bool

// SetQuietMode silences everything but errors
func SetQuietMode(on bool) { quiet.Store(on) }

// IsQuietMode reports whether output is silenced
func IsQuietMode() bool { return quiet.Load() }

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

func PrintLogo() {
	if IsQuietMode() {
		return
	}
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints msg in red, followed by the first arg if any. Errors
// are printed even in quiet mode.
func PrintError(msg string, args ...interface{}) {
	fmt.Println(Red(withArg(msg, args)))
}

func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Green(msg))
}

func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Yellow(withArg(msg, args)))
}

func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Magenta(msg))
}

func withArg(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}
