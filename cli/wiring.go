package cli

import (
	"github.com/maastricht-university/ecg-pipeline/metrics"
	"github.com/maastricht-university/ecg-pipeline/orchestrator"
	"github.com/maastricht-university/ecg-pipeline/publish"
	"github.com/maastricht-university/ecg-pipeline/store"
)

// services assembles the pipeline and its sinks. With the database
// disabled and keepMemory set, diagnoses are kept in process.
func (a *app) services(keepMemory bool) (*orchestrator.Pipeline, store.Store, func(), error) {
	var (
		st      store.Store
		closers []func() error
	)
	switch {
	case a.cfg.Database.Enabled:
		pg, err := store.Connect(a.cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		st = pg
		closers = append(closers, pg.Close)
	case keepMemory:
		st = store.NewMemory()
	}

	pub, err := publish.New(a.cfg.Sink, a.log)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, nil, nil, err
	}
	closers = append(closers, pub.Close)

	opts := []orchestrator.Option{
		orchestrator.WithLogger(a.log),
		orchestrator.WithPublisher(pub),
		orchestrator.WithMetrics(metrics.New()),
	}
	if st != nil {
		opts = append(opts, orchestrator.WithStore(st))
	}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				a.log.WithError(err).Warn("close failed")
			}
		}
	}
	return orchestrator.NewPipeline(a.cfg, opts...), st, cleanup, nil
}
