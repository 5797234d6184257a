////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package session

import "strconv"

// State is the lifecycle state of a Session.
type State uint8

const (
	// Uninitialized is the state before a successful initialization.
	Uninitialized State = iota

	// Ready is the state after initialization, before the first frame.
	Ready

	// Rendering is the state once at least one frame has been rendered.
	Rendering

	// Terminating is the final state. Nothing is processed anymore.
	Terminating
)

// String returns a human-readable name for the State. This functions satisfies
// the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "UNINITIALIZED"
	case Ready:
		return "READY"
	case Rendering:
		return "RENDERING"
	case Terminating:
		return "TERMINATING"
	default:
		return "INVALID STATE " + strconv.Itoa(int(s))
	}
}
