////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package logging

import (
	"io"
	"strings"
	"sync"

	"github.com/armon/circbuf"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// DefaultMessageLogSize is the default size, in bytes, of a MessageLog.
const DefaultMessageLogSize = 64 * 1024

// MessageLog is a bounded, in-memory log. It contains a circular buffer that
// overwrites the oldest entries once full. It is used as the visible message
// log of the main thread and can also record jwalterweatherman output.
type MessageLog struct {
	threshold jww.Threshold

	// b holds one byte more than maxSize: the byte before the visible window,
	// which tells whether the window starts on a new line.
	b       *circbuf.Buffer
	maxSize int

	mux sync.Mutex
}

// NewMessageLog returns a MessageLog of the given size that records log
// events at or above the threshold when registered as a log listener.
func NewMessageLog(threshold jww.Threshold, maxSize int) (*MessageLog, error) {
	if err := validThreshold(threshold); err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		return nil, errors.Errorf("invalid message log size %d", maxSize)
	}
	b, err := circbuf.NewBuffer(int64(maxSize) + 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message log buffer")
	}
	return &MessageLog{threshold: threshold, b: b, maxSize: maxSize}, nil
}

// Listen is called for every logging event. This function adheres to the
// [jwalterweatherman.LogListener] type.
func (ml *MessageLog) Listen(t jww.Threshold) io.Writer {
	if t < ml.threshold {
		return nil
	}
	return ml
}

// Write appends p to the log. It always returns the length of p.
func (ml *MessageLog) Write(p []byte) (int, error) {
	ml.mux.Lock()
	defer ml.mux.Unlock()
	return ml.b.Write(p)
}

// Append adds a single line to the log.
func (ml *MessageLog) Append(line string) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, _ = ml.Write([]byte(line))
}

// Lines returns the complete lines held by the log, oldest first. A line
// partially overwritten by newer entries is dropped.
func (ml *MessageLog) Lines() []string {
	ml.mux.Lock()
	data := string(ml.b.Bytes())
	ml.mux.Unlock()

	partial := false
	if len(data) > ml.maxSize {
		partial = data[0] != '\n'
		data = data[1:]
	}

	data = strings.TrimSuffix(data, "\n")
	if data == "" {
		return nil
	}
	lines := strings.Split(data, "\n")
	if partial {
		lines = lines[1:]
	}
	return lines
}

// Bytes returns the contents of the log.
func (ml *MessageLog) Bytes() []byte {
	ml.mux.Lock()
	defer ml.mux.Unlock()
	data := ml.b.Bytes()
	if len(data) > ml.maxSize {
		data = data[1:]
	}
	return append([]byte(nil), data...)
}

// Threshold returns the log level threshold used when listening.
func (ml *MessageLog) Threshold() jww.Threshold { return ml.threshold }

// MaxSize returns the max size, in bytes, of the log.
func (ml *MessageLog) MaxSize() int { return ml.maxSize }

// Size returns the number of bytes ever written to the log.
func (ml *MessageLog) Size() int {
	ml.mux.Lock()
	defer ml.mux.Unlock()
	return int(ml.b.TotalWritten())
}

// Reset clears the log.
func (ml *MessageLog) Reset() {
	ml.mux.Lock()
	ml.b.Reset()
	ml.mux.Unlock()
}
