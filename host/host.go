////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package host provides the windowing environments the main-thread controller
// runs in: a headless in-memory host and, in the browser, the DOM.
package host

import (
	"github.com/pkg/errors"
)

// ErrCanvasNotFound is returned when no canvas has the requested ID.
var ErrCanvasNotFound = errors.New("canvas not found")
