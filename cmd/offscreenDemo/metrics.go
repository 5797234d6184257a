////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/offscreen-wasm/controller"
)

const metricsNamespace = "offscreen"

// newRegistry returns a registry with a counter for every controller
// statistic.
func newRegistry(stats func() controller.Stats) (*prometheus.Registry, error) {
	counters := map[string]struct {
		help  string
		value func(controller.Stats) uint64
	}{
		"worker_instances_total": {"Workers instantiated.",
			func(s controller.Stats) uint64 { return s.Instances }},
		"frames_requested_total": {"Frames requested from the worker.",
			func(s controller.Stats) uint64 { return s.FramesRequested }},
		"frames_presented_total": {"BITMAPS messages presented.",
			func(s controller.Stats) uint64 { return s.FramesPresented }},
		"bitmaps_presented_total": {"Bitmaps presented on canvases.",
			func(s controller.Stats) uint64 { return s.BitmapsPresented }},
		"notifications_total": {"NOTIFY messages received.",
			func(s controller.Stats) uint64 { return s.Notifications }},
		"error_notifications_total": {"Error NOTIFY messages received.",
			func(s controller.Stats) uint64 { return s.ErrorNotifications }},
		"worker_terminations_total": {"Workers terminated.",
			func(s controller.Stats) uint64 { return s.Terminations }},
	}

	reg := prometheus.NewRegistry()
	for name, c := range counters {
		value := c.value
		counter := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      c.help,
		}, func() float64 { return float64(value(stats())) })
		if err := reg.Register(counter); err != nil {
			return nil, errors.Wrapf(err, "could not register %s", name)
		}
	}
	return reg, nil
}

// serveMetrics serves the controller statistics on addr until finished is
// closed or the context is done.
func serveMetrics(ctx context.Context, finished <-chan struct{}, addr string,
	stats func() controller.Stats) error {
	reg, err := newRegistry(stats)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		jww.INFO.Printf("Serving metrics on %s/metrics", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		return errors.Wrap(err, "metrics server failed")
	case <-finished:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		jww.WARN.Printf("Failed to shut down metrics server: %+v", err)
	}
	return nil
}
