package main

import (
	"context"
	"log"
	"sync"
	"time"

	"controllerblocker/internal/association"
	"controllerblocker/internal/blocker"
	"controllerblocker/internal/config"
	"controllerblocker/internal/database"
	"controllerblocker/internal/tracker"
	"controllerblocker/internal/web"
	"controllerblocker/pkg/detector"
	"controllerblocker/pkg/input"
	"controllerblocker/pkg/integrations/joystick"
)

// runtime holds the services shared by the form and headless modes
type runtime struct {
	cfg       *config.Config
	store     *association.Store
	queue     *input.Queue
	pump      *input.Pump
	tracker   *tracker.Service
	blocker   *blocker.Service
	db        *database.DB
	repo      *database.Repository
	pruner    *database.Pruner
	webServer *web.Server

	wg sync.WaitGroup
}

func newRuntime(cfg *config.Config) *runtime {
	rt := &runtime{
		cfg:   cfg,
		store: association.NewStore(),
		queue: input.NewQueue(cfg.Blocker.QueueSize),
	}

	rt.pump = input.NewPump(rt.queue, joystick.Open)
	rt.tracker = tracker.NewService(cfg, detector.NewControllerEnumerator(), detector.NewProcessLister())
	rt.tracker.SetControllerSync(rt.pump)
	rt.blocker = blocker.NewService(cfg, rt.tracker, rt.store, rt.queue)

	// History is optional; blocking works without it.
	db, err := database.Connect(cfg.Database.Path)
	if err == nil {
		err = db.Initialize()
		if err != nil {
			db.Close()
		}
	}
	var history web.History
	if err != nil {
		log.Printf("Block history disabled: %v", err)
	} else {
		rt.db = db
		rt.repo = database.NewRepository(db)
		rt.tracker.SetErrorRecorder(rt.repo)
		rt.blocker.SetRecorder(rt.repo)
		history = rt.repo
		if retention := cfg.Database.Retention(); retention > 0 {
			rt.pruner = database.NewPruner(rt.repo, retention, time.Hour)
		}
	}

	rt.webServer = web.NewServer(cfg, rt.tracker, rt.store, rt.blocker, rt.queue, history)
	return rt
}

// Start runs the refresh ticks and the blocking loop, plus the web API when
// withWeb is set, until ctx is done
func (rt *runtime) Start(ctx context.Context, withWeb bool) {
	rt.wg.Add(2)
	go func() {
		defer rt.wg.Done()
		if err := rt.tracker.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Tracker error: %v", err)
		}
	}()
	go func() {
		defer rt.wg.Done()
		if err := rt.blocker.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Blocker error: %v", err)
		}
	}()

	if rt.pruner != nil {
		rt.wg.Add(1)
		go func() {
			defer rt.wg.Done()
			if err := rt.pruner.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("Pruner error: %v", err)
			}
		}()
	}

	if withWeb {
		startWeb(ctx, rt)
	}
}

// Shutdown stops the loops and waits for them
func (rt *runtime) Shutdown() {
	rt.tracker.Stop()
	rt.blocker.Stop()
	if rt.pruner != nil {
		rt.pruner.Stop()
	}
	rt.wg.Wait()
	rt.pump.Close()
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
}
