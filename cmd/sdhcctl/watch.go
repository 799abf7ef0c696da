// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/u-root/u-esdhc/pkg/hardware/esdhc"
	"github.com/u-root/u-esdhc/pkg/metric"
)

// prober is the part of a host the watcher uses.
type prober interface {
	Name() string
	CardPresent() (esdhc.Presence, error)
}

// presenceWatcher logs card insertion and removal.
type presenceWatcher struct {
	log  *zap.SugaredLogger
	last map[string]esdhc.Presence
}

func newPresenceWatcher(log *zap.SugaredLogger) *presenceWatcher {
	return &presenceWatcher{log: log, last: map[string]esdhc.Presence{}}
}

func (w *presenceWatcher) probe(p prober) {
	now, err := p.CardPresent()
	if err != nil {
		w.log.Warnf("%s: card detect: %v", p.Name(), err)
		return
	}
	last, seen := w.last[p.Name()]
	w.last[p.Name()] = now
	if seen && last == now {
		return
	}
	switch now {
	case esdhc.Yes:
		w.log.Infof("%s: card inserted", p.Name())
	case esdhc.No:
		w.log.Infof("%s: card removed", p.Name())
	default:
		w.log.Infof("%s: card presence unknown", p.Name())
	}
}

func watch(ctx context.Context, log *zap.SugaredLogger, hosts []*esdhc.Host, reg *prometheus.Registry, addr string, every time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	if addr != "" {
		reg.MustRegister(prometheus.NewGoCollector())
		mux := http.NewServeMux()
		metric.StartMetrics(mux, reg)
		srv := &http.Server{Addr: addr, Handler: mux}
		g.Go(func() error {
			log.Infof("Serving metrics on %s", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		w := newPresenceWatcher(log)
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			for _, h := range hosts {
				w.probe(h)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
			}
		}
	})
	return g.Wait()
}
