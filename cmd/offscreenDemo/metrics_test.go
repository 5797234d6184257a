////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"gitlab.com/elixxir/offscreen-wasm/controller"
)

// Tests that the registry reports the current controller statistics.
func Test_newRegistry(t *testing.T) {
	stats := controller.Stats{FramesRequested: 7, BitmapsPresented: 21}
	reg, err := newRegistry(func() controller.Stats { return stats })
	require.NoError(t, err)

	expected := `
# HELP offscreen_frames_requested_total Frames requested from the worker.
# TYPE offscreen_frames_requested_total counter
offscreen_frames_requested_total 7
# HELP offscreen_bitmaps_presented_total Bitmaps presented on canvases.
# TYPE offscreen_bitmaps_presented_total counter
offscreen_bitmaps_presented_total 21
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"offscreen_frames_requested_total", "offscreen_bitmaps_presented_total")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 7, n)
}
