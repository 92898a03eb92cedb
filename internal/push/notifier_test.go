package push

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesktopNotifierNoCommandIsNoOp(t *testing.T) {
	d := &DesktopNotifier{
		run: func(string, ...string) error {
			t.Fatal("no command should run without a resolved path")
			return nil
		},
	}
	assert.NoError(t, d.Notify("title", "message"))
}

func TestDesktopNotifierInvokesCommand(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("argument shape differs on darwin")
	}

	var gotPath string
	var gotArgs []string
	d := &DesktopNotifier{
		path: "/usr/bin/notify-send",
		run: func(path string, args ...string) error {
			gotPath = path
			gotArgs = args
			return nil
		},
	}

	require.NoError(t, d.Notify("Ticket Ready", "See you there"))
	assert.Equal(t, "/usr/bin/notify-send", gotPath)
	assert.Equal(t, []string{"--app-name=eventify", "Ticket Ready", "See you there"}, gotArgs)
}

func TestAppleScriptQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, appleScriptQuote("plain"))
	assert.Equal(t, `"say \"hi\""`, appleScriptQuote(`say "hi"`))
	assert.Equal(t, `"back\\slash"`, appleScriptQuote(`back\slash`))
}
