package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/kephale/copick-server/datastore"
)

func TestGlobalIsAuthorized(t *testing.T) {
	saved := authorizedUsers
	defer func() { authorizedUsers = saved }()

	authorizedUsers = nil
	if globalIsAuthorized("alice", "GET") {
		t.Errorf("expected no authorization with empty user list\n")
	}
	authorizedUsers = map[string]string{
		"alice": "readwrite",
		"bob":   "read",
		"carol": "write",
		"dave":  "admin",
	}
	tests := []struct {
		user, method string
		ok           bool
	}{
		{"alice", "GET", true},
		{"alice", "PUT", true},
		{"bob", "GET", true},
		{"bob", "HEAD", true},
		{"bob", "PUT", false},
		{"carol", "GET", false},
		{"carol", "PUT", true},
		{"dave", "GET", false},
		{"eve", "GET", false},
	}
	for _, tc := range tests {
		if got := globalIsAuthorized(tc.user, tc.method); got != tc.ok {
			t.Errorf("%s %s: expected %t, got %t\n", tc.user, tc.method, tc.ok, got)
		}
	}
	authorizedUsers["*"] = "read"
	if !globalIsAuthorized("eve", "GET") || globalIsAuthorized("eve", "PUT") {
		t.Errorf("wildcard privilege not applied\n")
	}
}

func authRequest(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("chunk"))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ServeSingleHTTP(w, req)
	return w
}

func TestAuthorization(t *testing.T) {
	saved, savedUsers := tc, authorizedUsers
	defer func() { tc, authorizedUsers = saved, savedUsers }()

	authFile := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(authFile, []byte(`{"alice": "readwrite", "bob": "read"}`), 0644); err != nil {
		t.Fatalf("unable to write auth file: %v\n", err)
	}
	tc.Auth = authConfig{AuthFile: authFile, SecretKey: "test secret"}
	if err := loadAuthFile(); err != nil {
		t.Fatalf("unable to load auth file: %v\n", err)
	}
	root := NewTestServer(t)
	datastore.PutTestData(t, root, false, "ExperimentRuns/TS_001/VoxelSpacing10.000/wbp.zarr/0", []byte("chunk"))
	path := "/TS_001/Tomograms/VoxelSpacing10.0/wbp.zarr/0"

	alice, err := generateJWT("alice")
	if err != nil {
		t.Fatalf("unable to make JWT: %v\n", err)
	}
	bob, err := generateJWT("bob")
	if err != nil {
		t.Fatalf("unable to make JWT: %v\n", err)
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user": "alice"}).SignedString([]byte("wrong secret"))
	if err != nil {
		t.Fatalf("unable to make forged JWT: %v\n", err)
	}

	if w := authRequest(t, "GET", path, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d\n", w.Code)
	}
	if w := authRequest(t, "GET", path, forged); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with forged token, got %d\n", w.Code)
	}
	if w := authRequest(t, "GET", path, bob); w.Code != http.StatusOK {
		t.Errorf("expected 200 for reader GET, got %d\n", w.Code)
	}
	if w := authRequest(t, "PUT", path, bob); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for reader PUT, got %d\n", w.Code)
	}
	if w := authRequest(t, "PUT", path, alice); w.Code != http.StatusOK {
		t.Errorf("expected 200 for writer PUT, got %d\n", w.Code)
	}

	tc.Auth = authConfig{AuthFile: authFile}
	if err := loadAuthFile(); err == nil {
		t.Errorf("expected error for auth file without secret key\n")
	}
}
