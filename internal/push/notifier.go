package push

import (
	"os/exec"
	"runtime"
)

// DesktopNotifier raises native OS popups through the platform's
// notification command: notify-send on Linux/BSD, osascript on macOS.
// When neither is available every call is a silent no-op, keeping the
// side effect best-effort.
type DesktopNotifier struct {
	path string
	run  func(path string, args ...string) error
}

// NewDesktopNotifier looks up the platform's notification command.
func NewDesktopNotifier() *DesktopNotifier {
	var path string
	if runtime.GOOS == "darwin" {
		path, _ = exec.LookPath("osascript")
	} else {
		path, _ = exec.LookPath("notify-send")
	}
	return &DesktopNotifier{
		path: path,
		run: func(path string, args ...string) error {
			return exec.Command(path, args...).Run()
		},
	}
}

// Notify raises a popup with the given title and message.
func (d *DesktopNotifier) Notify(title, message string) error {
	if d.path == "" {
		return nil
	}
	if runtime.GOOS == "darwin" {
		script := "display notification " + appleScriptQuote(message) +
			" with title " + appleScriptQuote(title)
		return d.run(d.path, "-e", script)
	}
	return d.run(d.path, "--app-name=eventify", title, message)
}

// appleScriptQuote wraps s in AppleScript double quotes, escaping the
// characters that would break out of the literal.
func appleScriptQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			out = append(out, '\\', s[i])
		default:
			out = append(out, s[i])
		}
	}
	out = append(out, '"')
	return string(out)
}
