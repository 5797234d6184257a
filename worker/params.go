////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package worker

// Params are parameters used in the [Manager] and [ThreadManager].
type Params struct {
	// MessageLogging indicates if a DEBUG message should be printed every time
	// a message is sent or received.
	MessageLogging bool `toml:"messageLogging"`

	// TruncateLength is the maximum length of a message printed when
	// MessageLogging is enabled.
	TruncateLength int `toml:"truncateLength"`
}

// DefaultParams returns the default parameters.
func DefaultParams() Params {
	return Params{
		MessageLogging: false,
		TruncateLength: 64,
	}
}
