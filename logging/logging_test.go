////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package logging

import (
	"strings"
	"testing"

	jww "github.com/spf13/jwalterweatherman"
	"github.com/stretchr/testify/require"
)

// Tests that MessageLog.Lines returns the appended lines in order.
func TestMessageLog_Append(t *testing.T) {
	ml, err := NewMessageLog(jww.LevelInfo, 1024)
	require.NoError(t, err)

	expected := []string{"[w] - building the scene", "[w] - ready"}
	for _, line := range expected {
		ml.Append(line)
	}
	require.Equal(t, expected, ml.Lines())
	require.Equal(t, len("[w] - building the scene\n[w] - ready\n"), ml.Size())
}

// Tests that once the buffer is full the oldest entries are dropped along with
// any partially overwritten line.
func TestMessageLog_Overwrite(t *testing.T) {
	ml, err := NewMessageLog(jww.LevelInfo, 16)
	require.NoError(t, err)

	for _, line := range []string{"aaaaaa", "bbbbbb", "cccccc"} {
		ml.Append(line)
	}

	expected := []string{"bbbbbb", "cccccc"}
	lines := ml.Lines()
	if strings.Join(lines, ",") != strings.Join(expected, ",") {
		t.Errorf("Unexpected lines.\nexpected: %q\nreceived: %q",
			expected, lines)
	}
	require.Equal(t, 16, ml.MaxSize())
	require.Equal(t, 21, ml.Size())

	ml.Reset()
	require.Empty(t, ml.Lines())
}

// Tests that when the oldest kept byte starts a line, that line is complete
// and is kept.
func TestMessageLog_Overwrite_LineBoundary(t *testing.T) {
	ml, err := NewMessageLog(jww.LevelInfo, 14)
	require.NoError(t, err)

	for _, line := range []string{"aaaaaa", "bbbbbb", "cccccc"} {
		ml.Append(line)
	}

	expected := []string{"bbbbbb", "cccccc"}
	lines := ml.Lines()
	if strings.Join(lines, ",") != strings.Join(expected, ",") {
		t.Errorf("Unexpected lines.\nexpected: %q\nreceived: %q",
			expected, lines)
	}
	if b := string(ml.Bytes()); b != "bbbbbb\ncccccc\n" {
		t.Errorf("Unexpected contents.\nexpected: %q\nreceived: %q",
			"bbbbbb\ncccccc\n", b)
	}
	require.Equal(t, 14, ml.MaxSize())
}

// Tests that MessageLog.Listen only returns a writer at or above the
// threshold.
func TestMessageLog_Listen(t *testing.T) {
	ml, err := NewMessageLog(jww.LevelWarn, 1024)
	require.NoError(t, err)

	if w := ml.Listen(jww.LevelInfo); w != nil {
		t.Errorf("Received writer below the threshold: %v", w)
	}
	if w := ml.Listen(jww.LevelError); w != ml {
		t.Errorf("Unexpected writer.\nexpected: %p\nreceived: %v", ml, w)
	}
}

// Tests that NewMessageLog rejects invalid thresholds and sizes.
func TestNewMessageLog_Invalid(t *testing.T) {
	if _, err := NewMessageLog(jww.LevelFatal+1, 16); err == nil {
		t.Error("No error for invalid threshold.")
	}
	if _, err := NewMessageLog(jww.LevelInfo, 0); err == nil {
		t.Error("No error for zero size.")
	}
}

// Tests that registered listeners receive log output until removed.
func TestAddLogListener(t *testing.T) {
	ml, err := NewMessageLog(jww.LevelTrace, 4096)
	require.NoError(t, err)

	before := NumLogListeners()
	id := AddLogListener(ml.Listen)
	require.Equal(t, before+1, NumLogListeners())

	jww.WARN.Print("registered listener message")
	if !strings.Contains(string(ml.Bytes()), "registered listener message") {
		t.Errorf("Listener did not receive log: %q", ml.Bytes())
	}

	RemoveLogListener(id)
	require.Equal(t, before, NumLogListeners())
	ml.Reset()
	jww.WARN.Print("removed listener message")
	require.Empty(t, ml.Bytes())
}

// Tests that LogLevel rejects invalid thresholds.
func TestLogLevel_Invalid(t *testing.T) {
	for _, th := range []jww.Threshold{jww.LevelTrace - 1, jww.LevelFatal + 1} {
		if err := LogLevel(th); err == nil {
			t.Errorf("No error for invalid log level %d.", th)
		}
	}
	require.NoError(t, LogLevel(jww.LevelInfo))
}
