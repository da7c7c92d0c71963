package picks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/datatype"
)

func serve(run *datastore.Run, method, path string, body []byte) (*httptest.ResponseRecorder, error) {
	w := httptest.NewRecorder()
	req := &datatype.Request{Method: method, Run: run, Path: path, Body: bytes.NewReader(body)}
	_, err := Handler{}.Serve(context.Background(), w, req)
	return w, err
}

func testRun(t *testing.T) (*datastore.Root, *datastore.Run) {
	root := datastore.NewTestRoot(t, "ribosome", "proteasome")
	datastore.PutTestData(t, root, true, "ExperimentRuns/TS_001/Picks/curation_0_proteasome.json",
		[]byte(`{"points":[{"location":{"x":1,"y":1,"z":1},"instance_id":0,"score":1}],"unit":"angstrom","trust_orientation":true}`))
	return root, datastore.GetTestRun(t, root, "TS_001")
}

func TestPutGet(t *testing.T) {
	root, run := testRun(t)
	body := []byte(`{
		"pickable_object_name": "ribosome",
		"points": [
			{"location": {"x": 10.5, "y": 20, "z": 30}, "score": 0.8},
			{"location": {"x": 1, "y": 2, "z": 3}, "instance_id": 2}
		]
	}`)
	w, err := serve(run, "PUT", "alice_s1_ribosome.json", body)
	if err != nil || w.Code != http.StatusOK {
		t.Fatalf("PUT failed: %v %d\n", err, w.Code)
	}
	found, err := root.Overlay().Exists(context.Background(), "ExperimentRuns/TS_001/Picks/alice_s1_ribosome.json")
	if err != nil || !found {
		t.Fatalf("picks not stored in overlay: %v\n", err)
	}

	w, err = serve(run, "GET", "alice_s1_ribosome.json", nil)
	if err != nil || w.Code != http.StatusOK {
		t.Fatalf("GET failed: %v %d\n", err, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("bad content type %q\n", ct)
	}
	var got datastore.PicksFile
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad GET body %s: %v\n", w.Body.Bytes(), err)
	}
	if got.PickableObjectName != "ribosome" || got.UserID != "alice" || got.SessionID != "s1" || got.RunName != "TS_001" {
		t.Errorf("identity not filled: %+v\n", got)
	}
	if got.Unit != "angstrom" || !got.TrustOrientation || len(got.Points) != 2 {
		t.Errorf("bad record: %+v\n", got)
	}
	if got.Points[0].Location.X != 10.5 || got.Points[0].Score != 0.8 || got.Points[1].InstanceID != 2 || got.Points[1].Score != 1 {
		t.Errorf("bad points: %+v\n", got.Points)
	}

	w, err = serve(run, "HEAD", "alice_s1_ribosome.json", nil)
	if err != nil || w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("bad HEAD: %v %d %d\n", err, w.Code, w.Body.Len())
	}
}

func TestGetStatic(t *testing.T) {
	_, run := testRun(t)
	w, err := serve(run, "GET", "curation_0_proteasome.json", nil)
	if err != nil {
		t.Fatalf("GET failed: %v\n", err)
	}
	var got datastore.PicksFile
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad GET body: %v\n", err)
	}
	if got.UserID != "curation" || got.PickableObjectName != "proteasome" || len(got.Points) != 1 {
		t.Errorf("bad static record: %+v\n", got)
	}
}

func TestBadPaths(t *testing.T) {
	_, run := testRun(t)
	for _, path := range []string{"", "alice.json", "alice_s1.json", "alice_s1_ribo_some.json", "alice__ribosome.json", "alice_s1_ribosome.json/extra"} {
		for _, method := range []string{"GET", "PUT"} {
			_, err := serve(run, method, path, []byte(`{"points":[]}`))
			if kind := copick.KindOf(err); err == nil || (kind != copick.InvalidPath && kind != copick.NotFound) {
				t.Errorf("%s %q: expected 404-class error, got %v\n", method, path, err)
			}
		}
	}
	for _, method := range []string{"GET", "HEAD"} {
		w, err := serve(run, method, "bob_s1_ribosome.json", nil)
		if copick.KindOf(err) != copick.NotFound {
			t.Errorf("%s: expected not found for missing picks, got %v\n", method, err)
		}
		if w.Body.Len() != 0 {
			t.Errorf("%s: expected no body for missing picks, got %q\n", method, w.Body.String())
		}
	}
}

func TestBadBodies(t *testing.T) {
	root, run := testRun(t)
	tests := []struct {
		path string
		body string
	}{
		{"alice_s1_ribosome.json", `not json`},
		{"alice_s1_ribosome.json", `{}`},
		{"alice_s1_ribosome.json", `{"points": [{"location": {"x": 1}}]}`},
		{"alice_s1_ribosome.json", `{"points": [], "user_id": "bob"}`},
		{"alice_s1_ribosome.json", `{"points": [], "pickable_object_name": "proteasome"}`},
		{"alice_s1_ribosome.json", `{"points": [], "colour": "red"}`},
		{"alice_s1_vesicle.json", `{"points": []}`},
	}
	for _, tc := range tests {
		_, err := serve(run, "PUT", tc.path, []byte(tc.body))
		if copick.KindOf(err) != copick.MalformedBody {
			t.Errorf("PUT %s %s: expected malformed body, got %v\n", tc.path, tc.body, err)
		}
	}
	children, err := root.Overlay().List(context.Background(), "ExperimentRuns/TS_001/Picks/")
	if err != nil || len(children) != 0 {
		t.Errorf("bad bodies were stored: %v %v\n", children, err)
	}
}
