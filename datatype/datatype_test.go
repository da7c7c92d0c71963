package datatype

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kephale/copick-server/copick"
)

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Tomograms, Picks, Segmentations} {
		parsed, ok := ParseKind(k.String())
		if !ok || parsed != k {
			t.Errorf("kind %s did not parse back: %v %t\n", k, parsed, ok)
		}
	}
	for _, s := range []string{"", "tomograms", "PICKS", "Meshes", "Unknown"} {
		if _, ok := ParseKind(s); ok {
			t.Errorf("expected %q not to be a kind\n", s)
		}
	}
}

func TestReadBody(t *testing.T) {
	req := &Request{Method: "PUT", Body: strings.NewReader("hello")}
	data, err := req.ReadBody()
	if err != nil || string(data) != "hello" {
		t.Fatalf("bad body read: %q, %v\n", data, err)
	}

	w := httptest.NewRecorder()
	body := http.MaxBytesReader(w, io.NopCloser(bytes.NewReader(make([]byte, 100))), 10)
	req = &Request{Method: "PUT", Body: body}
	if _, err := req.ReadBody(); copick.KindOf(err) != copick.MalformedBody {
		t.Errorf("expected malformed body for oversize request, got %v\n", err)
	}
}

func TestWriteData(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteData(w, &Request{Method: "GET"}, "application/octet-stream", []byte{1, 2, 3}); err != nil {
		t.Fatalf("write failed: %v\n", err)
	}
	if w.Code != http.StatusOK || w.Body.Len() != 3 || w.Header().Get("Content-Length") != "3" {
		t.Errorf("bad GET response: %d %v %v\n", w.Code, w.Body.Bytes(), w.Header())
	}

	w = httptest.NewRecorder()
	if err := WriteData(w, &Request{Method: "HEAD"}, "application/json", []byte("{}")); err != nil {
		t.Fatalf("write failed: %v\n", err)
	}
	if w.Code != http.StatusOK || w.Body.Len() != 0 || w.Header().Get("Content-Length") != "2" {
		t.Errorf("bad HEAD response: %d %v %v\n", w.Code, w.Body.Bytes(), w.Header())
	}
}
