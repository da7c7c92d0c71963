package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/datatype"
	"github.com/kephale/copick-server/storage"
	"github.com/rs/cors"
	"github.com/zenazn/goji/web"
	"github.com/zenazn/goji/web/middleware"
)

// RunCatalog resolves run names of a project.
type RunCatalog interface {
	GetRun(ctx context.Context, name string) (*datastore.Run, bool, error)
}

// Router resolves the run and kind of a request and dispatches it to the
// kind's handler.  It is the only place errors become status codes.
type Router struct {
	catalog  RunCatalog
	handlers map[datatype.Kind]datatype.Handler
	maxBody  int64
}

// NewRouter returns a Router over the catalog.  A nil handlers map uses the
// handlers registered with package datatype.
func NewRouter(catalog RunCatalog, handlers map[datatype.Kind]datatype.Handler) *Router {
	if handlers == nil {
		handlers = datatype.Compiled()
	}
	return &Router{catalog: catalog, handlers: handlers}
}

// SetMaxBody limits request bodies to n bytes.  Zero means no limit.
func (rt *Router) SetMaxBody(n int64) {
	rt.maxBody = n
}

// statusCode is the single translation of error kinds to HTTP status.
func statusCode(kind copick.ErrorKind) int {
	switch kind {
	case copick.NotFound, copick.InvalidPath:
		return http.StatusNotFound
	case copick.ReadOnlyViolation:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// responseWriter records the status and size of a response.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timedLog := copick.NewTimeLog()
	rw := &responseWriter{ResponseWriter: w}
	var activity map[string]interface{}
	var err error
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("panic: %v", e)
			copick.Criticalf("Panic serving %s %s: %v\n", r.Method, r.URL.Path, e)
		}
		if err != nil {
			kind := copick.KindOf(err)
			status := statusCode(kind)
			switch {
			case rw.status != 0:
			case r.Method == http.MethodHead:
				rw.WriteHeader(status)
			default:
				http.Error(rw, err.Error(), status)
			}
			if status >= http.StatusInternalServerError {
				copick.Errorf("%s %s (%d, %s): %v\n", r.Method, r.URL.Path, status, kind, err)
			} else {
				copick.Infof("%s %s (%d, %s): %v\n", r.Method, r.URL.Path, status, kind, err)
			}
		} else if rw.status == 0 {
			rw.WriteHeader(http.StatusOK)
		}
		timedLog.Infof("%s %s (%d) sent %s", r.Method, r.URL.Path, rw.status, humanize.Bytes(uint64(rw.written)))
		if storage.KafkaAvailable() {
			if activity == nil {
				activity = map[string]interface{}{}
			}
			activity["time"] = time.Now().Unix()
			activity["method"] = r.Method
			activity["path"] = r.URL.Path
			activity["status"] = rw.status
			activity["duration"] = timedLog.Elapsed().Seconds() * 1000.0
			if err != nil {
				activity["error"] = err.Error()
			}
			storage.LogActivityToKafka(activity)
		}
	}()
	activity, err = rt.serve(r.Context(), rw, r)
}

func (rt *Router) serve(ctx context.Context, w http.ResponseWriter, r *http.Request) (map[string]interface{}, error) {
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 3)
	if len(parts) < 3 {
		return nil, copick.InvalidPathf("path %q must be /{run}/{kind}/...", r.URL.Path)
	}
	run, found, err := rt.catalog.GetRun(ctx, parts[0])
	if err != nil {
		return nil, copick.BackendErr(err, "run lookup")
	}
	if !found {
		return nil, copick.NotFoundf("no run %q", parts[0])
	}
	kind, ok := datatype.ParseKind(parts[1])
	if !ok {
		return nil, copick.NotFoundf("no data kind %q", parts[1])
	}
	handler, found := rt.handlers[kind]
	if !found {
		return nil, copick.NotFoundf("no handler for %s", kind)
	}
	req := &datatype.Request{
		Method: r.Method,
		Run:    run,
		Path:   parts[2],
		Body:   r.Body,
	}
	if rt.maxBody > 0 && r.Body != nil {
		req.Body = http.MaxBytesReader(w, r.Body, rt.maxBody)
	}
	return handler.Serve(ctx, w, req)
}

// notAllowed answers requests whose path matched only routes of other methods.
func notAllowed(c web.C, w http.ResponseWriter, r *http.Request) {
	if methods, ok := c.Env[web.ValidMethodsKey].([]string); ok && len(methods) != 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
		http.Error(w, fmt.Sprintf("method %s not allowed", r.Method), http.StatusMethodNotAllowed)
		return
	}
	http.NotFound(w, r)
}

// NewMux returns the web mux for a router: GET (and HEAD) and PUT on every
// path, CORS for the given origins, and JWT authorization if configured.
func NewMux(rt *Router, corsOrigins []string) *web.Mux {
	mux := web.New()
	mux.Use(middleware.RequestID)
	if len(corsOrigins) != 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowCredentials: true,
			AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPut},
			AllowedHeaders:   []string{"*"},
		})
		mux.Use(c.Handler)
	}
	if authEnabled() {
		mux.Use(isAuthorized)
	}
	mux.Get("/*", rt)
	mux.Put("/*", rt)
	mux.NotFound(notAllowed)
	return mux
}
