/*
Package picks serves the JSON point annotations of a run:

	GET  /{run}/Picks/{user}_{session}_{object}.json
	HEAD /{run}/Picks/{user}_{session}_{object}.json
	PUT  /{run}/Picks/{user}_{session}_{object}.json

A PUT body must validate against the picks schema.  Identity fields in the body
are optional and, when present, must agree with the path.  Writes always go to
the overlay root.
*/
package picks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/datatype"
	"github.com/kephale/copick-server/storage"
)

func init() {
	datatype.Register(Handler{})
}

// Handler is the datatype.Handler for pick sets.
type Handler struct{}

func (Handler) Kind() datatype.Kind {
	return datatype.Picks
}

// identity is the pick set addressed by a request path.
type identity struct {
	object  string
	user    string
	session string
}

// parseIdentity splits "{user}_{session}_{object}.json" into exactly three
// non-empty fields.
func parseIdentity(filename string) (id identity, err error) {
	if filename == "" || strings.Contains(filename, "/") {
		return id, copick.InvalidPathf("picks path %q must be a single file name", filename)
	}
	fields := strings.Split(strings.TrimSuffix(filename, ".json"), "_")
	if len(fields) != 3 {
		return id, copick.InvalidPathf("picks file name %q must be {user}_{session}_{object}.json", filename)
	}
	for _, field := range fields {
		if field == "" || field == "." || field == ".." {
			return id, copick.InvalidPathf("picks file name %q has an empty field", filename)
		}
	}
	return identity{user: fields[0], session: fields[1], object: fields[2]}, nil
}

// Serve reads or writes one pick set.
func (Handler) Serve(ctx context.Context, w http.ResponseWriter, req *datatype.Request) (map[string]interface{}, error) {
	id, err := parseIdentity(req.Path)
	if err != nil {
		return nil, err
	}
	activity := map[string]interface{}{
		"kind":       datatype.Picks.String(),
		"run":        req.Run.Name(),
		"object":     id.object,
		"user_id":    id.user,
		"session_id": id.session,
	}
	if req.IsWrite() {
		numPoints, err := putPicks(ctx, req, id)
		if err != nil {
			return nil, err
		}
		activity["action"] = "put"
		activity["points"] = numPoints
		w.WriteHeader(http.StatusOK)
		return activity, nil
	}

	sets, err := req.Run.Picks(ctx, id.object, id.user, id.session)
	if err != nil {
		return nil, copick.BackendErr(err, "picks lookup")
	}
	if len(sets) == 0 {
		return nil, copick.NotFoundf("no picks %q in %s", req.Path, req.Run)
	}
	pf, err := sets[0].Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, copick.NotFoundf("%s has no stored record", sets[0])
	}
	if err != nil {
		return nil, copick.BackendErr(err, "unable to load %s", sets[0])
	}
	if err := pf.SetIdentity(id.object, id.user, id.session, req.Run.Name()); err != nil {
		copick.Warningf("Stored %s: %v\n", sets[0], err)
	}
	data, err := json.Marshal(pf)
	if err != nil {
		return nil, copick.BackendErr(err, "unable to serialize %s", sets[0])
	}
	activity["action"] = strings.ToLower(req.Method)
	activity["points"] = len(pf.Points)
	return activity, datatype.WriteData(w, req, "application/json", data)
}

func putPicks(ctx context.Context, req *datatype.Request, id identity) (numPoints int, err error) {
	body, err := req.ReadBody()
	if err != nil {
		return 0, err
	}
	pf, err := datastore.ParsePicksFile(body)
	if err != nil {
		return 0, copick.MalformedBodyErr(err, "bad picks for %s", req)
	}
	if err := pf.SetIdentity(id.object, id.user, id.session, req.Run.Name()); err != nil {
		return 0, copick.MalformedBodyErr(err, "bad picks for %s", req)
	}
	ps, err := req.Run.NewPicks(id.object, id.user, id.session)
	if errors.Is(err, datastore.ErrUnknownObject) {
		return 0, copick.MalformedBodyErr(err, "bad picks for %s", req)
	}
	if err != nil {
		return 0, copick.InvalidPathf("bad picks identity in %s: %v", req, err)
	}
	if err := ps.Store(ctx, pf); err != nil {
		if copick.KindOf(err) == copick.ReadOnlyViolation {
			return 0, err
		}
		return 0, copick.BackendErr(err, "unable to store %s", ps)
	}
	copick.Debugf("Stored %d points in %s\n", len(pf.Points), ps)
	return len(pf.Points), nil
}
