////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package logging

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// LogLevel sets level of logging. All logs at the set level and below will be
// displayed (e.g., when log level is ERROR, only ERROR, CRITICAL, and FATAL
// messages will be printed).
//
// The default log level without updates is INFO.
func LogLevel(threshold jww.Threshold) error {
	if err := validThreshold(threshold); err != nil {
		return err
	}

	jww.SetLogThreshold(threshold)
	jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	setOutput(threshold)

	printAt(threshold, fmt.Sprintf("Log level set to: %s", threshold))
	return nil
}

// validThreshold returns an error if the threshold is not a jwalterweatherman
// level.
func validThreshold(threshold jww.Threshold) error {
	if threshold < jww.LevelTrace || threshold > jww.LevelFatal {
		return errors.Errorf("log level is not valid: log level: %d", threshold)
	}
	return nil
}

// printAt prints the message at the given level, raising anything below INFO
// to INFO so that it is always visible.
func printAt(threshold jww.Threshold, msg string) {
	switch threshold {
	case jww.LevelTrace, jww.LevelDebug, jww.LevelInfo:
		jww.INFO.Print(msg)
	case jww.LevelWarn:
		jww.WARN.Print(msg)
	case jww.LevelError:
		jww.ERROR.Print(msg)
	case jww.LevelCritical:
		jww.CRITICAL.Print(msg)
	case jww.LevelFatal:
		jww.FATAL.Print(msg)
	}
}
