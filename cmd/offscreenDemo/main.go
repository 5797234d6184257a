////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// package main runs the offscreen render demo without a browser. The main
// thread controller and the render worker run as goroutines connected by a
// local pipe, and the presented canvases can be written out as PNG files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/sync/errgroup"

	"gitlab.com/elixxir/offscreen-wasm/config"
	"gitlab.com/elixxir/offscreen-wasm/controller"
	"gitlab.com/elixxir/offscreen-wasm/frame"
	"gitlab.com/elixxir/offscreen-wasm/host"
	"gitlab.com/elixxir/offscreen-wasm/logging"
	"gitlab.com/elixxir/offscreen-wasm/render"
	"gitlab.com/elixxir/offscreen-wasm/session"
	"gitlab.com/elixxir/offscreen-wasm/worker"
)

// Flag variables.
var (
	configPath, mode, loopOwner, outputDir, logFile, metricsAddr string
	logLevel, frames                                             int
	frameInterval, timeout                                       time.Duration
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Renders the default scene on an in-process worker until the worker asks to
// be terminated, then writes every canvas to the output directory.
var cmd = &cobra.Command{
	Use: "offscreenDemo",
	Short: "Runs the offscreen render demo headless: a render worker draws " +
		"the scene and the main thread presents every frame on in-memory " +
		"canvases. Refer to the flags for details.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := loadConfig(cmd)

		// Initialize the logging
		logOutput, err := logging.InitLog(c.LogPath, jww.Threshold(c.LogLevel))
		if err != nil {
			jww.FATAL.Panicf("Failed to initialize logging: %+v", err)
		}
		if logOutput != nil {
			defer logOutput.Close()
		}

		ml, err := logging.NewMessageLog(jww.LevelInfo, c.MessageLogSize)
		if err != nil {
			jww.FATAL.Panicf("Failed to create message log: %+v", err)
		}

		h := host.NewHeadless(frame.NewTickerRequester(frameInterval, nil), ml)
		if err = addCanvases(h, c.Controller); err != nil {
			jww.FATAL.Panicf("Failed to create canvases: %+v", err)
		}

		spawner := worker.LocalSpawner{Entry: session.EntryPoint(
			render.NewSoftware(), c.Session, c.Worker)}
		ctrl, err := controller.New(h, spawner, c.Controller, c.Worker)
		if err != nil {
			jww.FATAL.Panicf("Failed to create controller: %+v", err)
		}

		ctx, cancel := signal.NotifyContext(
			context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err = run(ctx, ctrl); err != nil {
			jww.FATAL.Panicf("Demo failed: %+v", err)
		}

		stats := ctrl.Stats()
		jww.INFO.Printf("Requested %d frames, presented %d frames and %d "+
			"bitmaps, received %d notifications.", stats.FramesRequested,
			stats.FramesPresented, stats.BitmapsPresented, stats.Notifications)
		for _, line := range ml.Lines() {
			fmt.Println(line)
		}

		if outputDir != "" {
			if err = writeCanvases(outputDir, h.Canvases()); err != nil {
				jww.FATAL.Panicf("Failed to write canvases: %+v", err)
			}
			jww.INFO.Printf("Wrote canvases to %s", outputDir)
		}
	},
}

// run drives the controller and, if enabled, serves metrics until the worker
// is terminated or the context is done.
func run(ctx context.Context, ctrl *controller.Controller) error {
	g, ctx := errgroup.WithContext(ctx)
	finished := make(chan struct{})

	g.Go(func() error {
		defer close(finished)
		if err := ctrl.Instantiate(); err != nil {
			return err
		}
		if err := ctrl.StartRenderLoop(); err != nil {
			ctrl.Terminate()
			return err
		}

		select {
		case <-ctrl.Done():
			jww.INFO.Printf("Worker %s terminated.", ctrl.WorkerName())
		case <-ctx.Done():
			jww.WARN.Printf("Stopping demo: %v", ctx.Err())
			ctrl.Terminate()
		}
		return nil
	})

	if metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, finished, metricsAddr, ctrl.Stats)
		})
	}

	return g.Wait()
}

// loadConfig reads the config file, if any, and applies the flags that were
// set on the command line.
func loadConfig(cmd *cobra.Command) config.Config {
	c := config.Default()
	if configPath != "" {
		var err error
		if c, err = config.Load(configPath); err != nil {
			jww.FATAL.Panicf("%+v", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("logLevel") {
		c.LogLevel = logLevel
	}
	if flags.Changed("log") {
		c.LogPath = logFile
	}
	if flags.Changed("frames") {
		c.Session.MaxFrames = uint64(frames)
	}
	if flags.Changed("mode") {
		c.Controller.Mode = controller.Mode(mode)
	}
	if flags.Changed("loopOwner") {
		c.Controller.LoopOwner = controller.LoopOwner(loopOwner)
	}

	if err := c.Validate(); err != nil {
		jww.FATAL.Panicf("Invalid configuration: %+v", err)
	}
	return c
}

// init is the initialization function for Cobra which defines flags.
func init() {
	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to a TOML config file. Flags override its values.")
	cmd.Flags().IntVarP(&frames, "frames", "f", 300,
		"Number of frames the worker renders before asking to be terminated.")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(controller.BitmapMode),
		"How frames reach the canvases: \"bitmaps\" or \"transfer\".")
	cmd.Flags().StringVar(&loopOwner, "loopOwner", string(controller.MainLoop),
		"Thread that schedules frames: \"main\" or \"worker\".")
	cmd.Flags().DurationVar(&frameInterval, "frameInterval", time.Second/60,
		"Time between frames of the main thread render loop.")
	cmd.Flags().DurationVar(&timeout, "timeout", 0,
		"Stop the demo after this long. Zero waits for the worker to finish.")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "",
		"Directory the canvases are written to as PNG files. "+
			"By default, nothing is written.")
	cmd.Flags().StringVarP(&logFile, "log", "l", "-",
		"Log output path. By default, logs are printed to stdout.")
	cmd.Flags().IntVarP(&logLevel, "logLevel", "v", 2,
		"Verbosity level of logging. 0 = TRACE, 1 = DEBUG, 2 = INFO, "+
			"3 = WARN, 4 = ERROR, 5 = CRITICAL, 6 = FATAL")
	cmd.Flags().StringVar(&metricsAddr, "metricsAddr", "",
		"Address to serve Prometheus metrics on (e.g. \":9090\"). "+
			"By default, metrics are not served.")
}
