package datatype

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
)

// Kind is the closed set of data kinds addressable under a run.
type Kind uint8

const (
	UnknownKind Kind = iota
	Tomograms
	Picks
	Segmentations
)

func (k Kind) String() string {
	switch k {
	case Tomograms:
		return "Tomograms"
	case Picks:
		return "Picks"
	case Segmentations:
		return "Segmentations"
	default:
		return "Unknown"
	}
}

// ParseKind returns the Kind for a path segment.  Matching is exact.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "Tomograms":
		return Tomograms, true
	case "Picks":
		return Picks, true
	case "Segmentations":
		return Segmentations, true
	default:
		return UnknownKind, false
	}
}

// Request is a protocol request after run resolution.
type Request struct {
	// Method is "GET", "HEAD" or "PUT".
	Method string

	Run *datastore.Run

	// Path holds the segments after the kind joined by "/".
	Path string

	Body io.Reader
}

func (r *Request) String() string {
	return fmt.Sprintf("%s %s/%s", r.Method, r.Run, r.Path)
}

// IsWrite returns true for PUT requests.
func (r *Request) IsWrite() bool {
	return r.Method == http.MethodPut
}

// ReadBody reads the full request body.  A body over the server's size limit is
// a malformed body.
func (r *Request) ReadBody() ([]byte, error) {
	if r.Body == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, copick.MalformedBodyErr(err, "body of %s exceeds %d bytes", r, maxErr.Limit)
		}
		return nil, copick.MalformedBodyErr(err, "unable to read body of %s", r)
	}
	return data, nil
}

// Handler serves one kind of data.  Serve writes a successful response to w and
// returns nil, or returns an error and writes nothing.  The returned activity,
// if any, is logged to the activity stream.
type Handler interface {
	Kind() Kind
	Serve(ctx context.Context, w http.ResponseWriter, req *Request) (activity map[string]interface{}, err error)
}

var (
	compiledMu sync.RWMutex
	compiled   = make(map[Kind]Handler)
)

// Register makes a handler available for its kind, replacing any earlier one.
func Register(h Handler) {
	compiledMu.Lock()
	compiled[h.Kind()] = h
	compiledMu.Unlock()
}

// Compiled returns a copy of the registered handlers by kind.
func Compiled() map[Kind]Handler {
	compiledMu.RLock()
	defer compiledMu.RUnlock()
	handlers := make(map[Kind]Handler, len(compiled))
	for k, h := range compiled {
		handlers[k] = h
	}
	return handlers
}

// WriteData writes a successful response holding data.  HEAD requests get the
// headers only.
func WriteData(w http.ResponseWriter, req *Request, contentType string, data []byte) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if req.Method == http.MethodHead {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("unable to write response for %s: %v", req, err)
	}
	return nil
}
