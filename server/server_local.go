/*
	This file opens the project and manages the web server of a single
	copick-server process.
*/

package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/storage"
	"github.com/zenazn/goji/web"
)

var (
	mu         sync.RWMutex
	project    *datastore.Root
	webMux     *web.Mux
	httpServer *http.Server

	// closed by Shutdown once the project and activity logging are closed
	shutdownDone chan struct{}
)

// Initialize opens the configured project, sets up logging, authorization and
// activity logging, and builds the web mux.
func Initialize() error {
	tc.Logging.SetLogger()

	config, err := LoadProject()
	if err != nil {
		return err
	}
	root, err := datastore.Open(context.Background(), config, StaticCacheBytes())
	if err != nil {
		return err
	}
	if err := loadAuthFile(); err != nil {
		root.Close()
		return err
	}
	if err := tc.Kafka.Initialize(Host()); err != nil {
		copick.Errorf("Unable to initialize kafka, proceeding without activity logging: %v\n", err)
	}
	SetProject(root)
	logProject(root)
	copick.Infof("Using %d of %d logical CPUs for copick-server, logging at %s level.\n",
		copick.NumCPU, runtime.NumCPU(), copick.LogMode())
	return nil
}

// SetProject serves the given project with the registered handlers.
func SetProject(root *datastore.Root) {
	rt := NewRouter(root, nil)
	rt.SetMaxBody(MaxBodyBytes())
	mu.Lock()
	project = root
	webMux = NewMux(rt, CorsOrigins())
	mu.Unlock()
}

// Project returns the served project or nil.
func Project() *datastore.Root {
	mu.RLock()
	defer mu.RUnlock()
	return project
}

func logProject(root *datastore.Root) {
	ctx := context.Background()
	runs, err := root.Runs(ctx)
	if err != nil {
		copick.Errorf("Unable to list runs of %s: %v\n", root, err)
		return
	}
	copick.Infof("Serving %s with %d runs\n", root, len(runs))
	if len(runs) == 0 {
		return
	}
	run, found, err := root.GetRun(ctx, runs[0])
	if err != nil || !found {
		return
	}
	spacings, err := run.VoxelSpacings(ctx)
	if err != nil {
		return
	}
	for _, vs := range spacings {
		tomos, err := vs.Tomograms(ctx)
		if err != nil {
			continue
		}
		copick.Debugf("  %s: %d tomograms\n", vs, len(tomos))
	}
}

// ServeSingleHTTP handles one HTTP request with the current mux.
func ServeSingleHTTP(w http.ResponseWriter, r *http.Request) {
	mu.RLock()
	m := webMux
	mu.RUnlock()
	if m == nil {
		http.Error(w, "copick-server has no project", http.StatusServiceUnavailable)
		return
	}
	m.ServeHTTP(w, r)
}

// Serve listens and serves HTTP requests until Shutdown has completed, i.e.,
// in-flight requests are drained and the project is closed.  Stay-alive
// connections are not allowed to hog goroutines for more than an hour.
func Serve() error {
	address := HTTPAddress()
	if address == "" {
		address = DefaultWebAddress
	}
	mu.Lock()
	if webMux == nil {
		mu.Unlock()
		return fmt.Errorf("server not initialized with a project")
	}
	httpServer = &http.Server{
		Addr:        address,
		Handler:     http.HandlerFunc(ServeSingleHTTP),
		ReadTimeout: 1 * time.Hour,
	}
	srv := httpServer
	done := make(chan struct{})
	shutdownDone = done
	mu.Unlock()

	copick.Infof("Web server listening at %s (%s) ...\n", address, Host())
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		mu.Lock()
		if httpServer == srv {
			httpServer, shutdownDone = nil, nil
		}
		mu.Unlock()
		return err
	}
	<-done
	return nil
}

// Shutdown waits the configured delay, stops the web server, and closes the
// project and activity logging.
func Shutdown() {
	if delay := tc.Server.ShutdownDelay; delay > 0 {
		copick.Infof("Waiting %d seconds for any in-flight requests to finish...\n", delay)
		time.Sleep(time.Duration(delay) * time.Second)
	}
	mu.Lock()
	srv, root, done := httpServer, project, shutdownDone
	httpServer, project, webMux, shutdownDone = nil, nil, nil, nil
	mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			copick.Errorf("Error shutting down web server: %v\n", err)
		}
		cancel()
	}
	if root != nil {
		logStoreStats(root)
		if err := root.Close(); err != nil {
			copick.Errorf("Error closing project: %v\n", err)
		}
	}
	storage.KafkaShutdown()
	copick.Infof("Shutdown complete.\n")
	copick.Shutdown()
	if done != nil {
		close(done)
	}
}

// logStoreStats reports the static read cache hit rate and the on-disk size of
// badger-backed roots.
func logStoreStats(root *datastore.Root) {
	if cached, ok := root.Static().(*storage.CachedStore); ok {
		copick.Infof("Static root cache hit rate: %.1f%%\n", 100*cached.HitRate())
	}
	type sizer interface {
		Size() (lsm, vlog int64)
	}
	for _, store := range []storage.Store{root.Overlay(), root.Static()} {
		if db, ok := store.(sizer); ok {
			lsm, vlog := db.Size()
			copick.Infof("%s: LSM %s, value log %s\n", store, humanize.Bytes(uint64(lsm)), humanize.Bytes(uint64(vlog)))
		}
	}
}
