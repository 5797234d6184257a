////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build !js || !wasm

package logging

import (
	"os"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// setOutput prints logs at or above the threshold to stdout.
func setOutput(threshold jww.Threshold) {
	jww.SetStdoutThreshold(threshold)
}

// InitLog sets the log level and, when logPath is not empty or "-", writes
// the log to the file at logPath instead of stdout. Returns the opened file,
// which the caller must close, or nil when logging to stdout.
func InitLog(logPath string, threshold jww.Threshold) (*os.File, error) {
	if err := LogLevel(threshold); err != nil {
		return nil, err
	}
	if logPath == "" || logPath == "-" {
		return nil, nil
	}

	f, err := os.OpenFile(
		logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open log file %q", logPath)
	}
	jww.SetLogOutput(f)
	jww.SetStdoutThreshold(jww.LevelFatal + 1)
	jww.INFO.Printf("Logging to %s at level %s", logPath, threshold)
	return f, nil
}
