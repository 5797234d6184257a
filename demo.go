////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package main

import (
	"os"
	"sync"
	"syscall/js"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/wasm-utils/exception"
	"gitlab.com/elixxir/wasm-utils/utils"

	"gitlab.com/elixxir/offscreen-wasm/config"
	"gitlab.com/elixxir/offscreen-wasm/controller"
	"gitlab.com/elixxir/offscreen-wasm/host"
	"gitlab.com/elixxir/offscreen-wasm/logging"
	"gitlab.com/elixxir/offscreen-wasm/worker"
)

const (
	// messageListID is the ID of the page's list of worker notifications.
	messageListID = "messages"

	// configKey is the settings key of the last configuration used.
	configKey = "config"
)

// demo holds the controller of the page. It is created by the first call to
// InstantiateWorker.
var demo struct {
	ctrl *controller.Controller
	mux  sync.Mutex
}

// newController creates the page's controller from the TOML configuration.
// When no configuration is given, the one saved by the previous page load is
// used. Offscreen surfaces cannot be posted to a Javascript worker, so the
// browser always runs in bitmap mode.
func newController(workerURL, configTOML string) (*controller.Controller, error) {
	settings, err := host.NewSettings()
	if err != nil {
		jww.WARN.Printf("Settings will not be saved: %+v", err)
	}
	data := []byte(configTOML)
	if configTOML == "" && settings != nil {
		data, err = settings.Get(configKey)
		if errors.Is(err, os.ErrNotExist) {
			data = nil
		} else if err != nil {
			return nil, errors.Wrap(err, "failed to load saved configuration")
		}
	}

	c, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	if c.Controller.Mode != controller.BitmapMode {
		jww.WARN.Printf("Mode %q is not available in the browser; using %q.",
			c.Controller.Mode, controller.BitmapMode)
		c.Controller.Mode = controller.BitmapMode
	}
	if settings != nil {
		if data, err = c.Marshal(); err != nil {
			return nil, err
		} else if err = settings.Set(configKey, data); err != nil {
			jww.WARN.Printf("Failed to save configuration: %+v", err)
		}
	}
	if err = logging.LogLevel(jww.Threshold(c.LogLevel)); err != nil {
		return nil, err
	}

	h, err := host.NewBrowser(messageListID)
	if err != nil {
		return nil, err
	}
	spawner := worker.JsSpawner{URL: workerURL}
	return controller.New(h, spawner, c.Controller, c.Worker)
}

// controllerOrErr returns the page's controller or an error if no worker was
// ever instantiated.
func controllerOrErr() (*controller.Controller, error) {
	demo.mux.Lock()
	defer demo.mux.Unlock()
	if demo.ctrl == nil {
		return nil, controller.ErrNoWorker
	}
	return demo.ctrl, nil
}

// InstantiateWorker spawns a new render worker, initializes it and creates
// the bitmap contexts of the page's canvases. The first call creates the
// controller; later calls re-instantiate a terminated worker.
//
// Parameters:
//   - args[0] - Path to the Javascript start file of the worker WASM (string).
//   - args[1] - Optional TOML configuration, only read on the first call
//     (string).
//
// Returns a promise:
//   - Resolves to the name of the new worker (string).
//   - Rejected with an error if the worker cannot be started.
func InstantiateWorker(_ js.Value, args []js.Value) any {
	workerURL := args[0].String()
	configTOML := ""
	if len(args) > 1 && args[1].Type() == js.TypeString {
		configTOML = args[1].String()
	}

	promiseFn := func(resolve, reject func(args ...any) js.Value) {
		demo.mux.Lock()
		defer demo.mux.Unlock()
		if demo.ctrl == nil {
			ctrl, err := newController(workerURL, configTOML)
			if err != nil {
				reject(exception.NewTrace(err))
				return
			}
			demo.ctrl = ctrl
		}

		if err := demo.ctrl.Instantiate(); err != nil {
			reject(exception.NewTrace(err))
			return
		}
		resolve(demo.ctrl.WorkerName())
	}

	return utils.CreatePromise(promiseFn)
}

// StartRenderLoop starts requesting a frame from the worker on every
// animation frame. Calling it while the loop runs does nothing.
//
// Returns:
//   - Throws an error if no worker is running.
func StartRenderLoop(js.Value, []js.Value) any {
	ctrl, err := controllerOrErr()
	if err == nil {
		err = ctrl.StartRenderLoop()
	}
	if err != nil {
		exception.ThrowTrace(err)
	}
	return nil
}

// StopRenderLoop stops requesting frames. Calling it while the loop is stopped
// does nothing.
//
// Returns:
//   - Throws an error if the stop message cannot be sent.
func StopRenderLoop(js.Value, []js.Value) any {
	ctrl, err := controllerOrErr()
	if err != nil {
		return nil
	}
	if err = ctrl.StopRenderLoop(); err != nil {
		exception.ThrowTrace(err)
	}
	return nil
}

// TerminateWorker destroys the worker. Calling it when no worker runs does
// nothing.
//
// Returns:
//   - True if a worker was terminated (boolean).
func TerminateWorker(js.Value, []js.Value) any {
	ctrl, err := controllerOrErr()
	if err != nil {
		return false
	}
	return ctrl.Terminate()
}

// GetStats returns the counters of the page's controller.
//
// Returns:
//   - An object with one counter per field of [controller.Stats].
//   - Throws an error if no worker was ever instantiated.
func GetStats(js.Value, []js.Value) any {
	ctrl, err := controllerOrErr()
	if err != nil {
		exception.ThrowTrace(err)
		return nil
	}
	s := ctrl.Stats()
	return map[string]any{
		"instances":          int(s.Instances),
		"framesRequested":    int(s.FramesRequested),
		"framesPresented":    int(s.FramesPresented),
		"bitmapsPresented":   int(s.BitmapsPresented),
		"notifications":      int(s.Notifications),
		"errorNotifications": int(s.ErrorNotifications),
		"terminations":       int(s.Terminations),
	}
}

// ClearSettings deletes the configuration saved by InstantiateWorker.
//
// Returns:
//   - Throws an error if local storage cannot be accessed.
func ClearSettings(js.Value, []js.Value) any {
	settings, err := host.NewSettings()
	if err == nil {
		err = settings.Clear()
	}
	if err != nil {
		exception.ThrowTrace(err)
	}
	return nil
}

// LogLevel sets level of logging. All logs at the set level and below will be
// displayed (e.g., when log level is ERROR, only ERROR, CRITICAL, and FATAL
// messages will be printed).
//
// Log level options:
//
//	TRACE    - 0
//	DEBUG    - 1
//	INFO     - 2
//	WARN     - 3
//	ERROR    - 4
//	CRITICAL - 5
//	FATAL    - 6
//
// Parameters:
//   - args[0] - Log level (int).
//
// Returns:
//   - Throws an error if the log level is invalid.
func LogLevel(_ js.Value, args []js.Value) any {
	threshold := jww.Threshold(args[0].Int())
	if err := logging.LogLevel(threshold); err != nil {
		exception.ThrowTrace(errors.WithStack(err))
	}
	return nil
}
