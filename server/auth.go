package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/kephale/copick-server/copick"
	"github.com/zenazn/goji/web"
)

// global authorization list: user -> "read", "write" or "readwrite".  The user
// "*" applies to any authenticated user not otherwise listed.
var authorizedUsers map[string]string

// authConfig is the [auth] section of the server TOML file.  Authorization is
// off unless an auth file is given.
type authConfig struct {
	AuthFile  string `toml:"auth_file"`
	SecretKey string `toml:"secret_key"`
}

// authEnabled returns true if requests must carry a JWT.
func authEnabled() bool {
	return tc.Auth.AuthFile != ""
}

// generateJWT returns a JWT given a user and the configured secret key
func generateJWT(user string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user": user})
	tokenString, err := token.SignedString([]byte(tc.Auth.SecretKey))
	if err != nil {
		return "", fmt.Errorf("error with JWT signing: %v", err)
	}
	return tokenString, nil
}

// isAuthorized is middleware that validates a JWT, checks the user's privilege
// for the request method and sets the c.Env["user"] field to the user.
func isAuthorized(c *web.C, h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		reqToken := r.Header.Get("Authorization")
		if len(reqToken) == 0 {
			authError(w, r, http.StatusUnauthorized, "JWT required via Authorization in request header")
			return
		}
		reqToken, found := strings.CutPrefix(reqToken, "Bearer ")
		if reqToken = strings.TrimSpace(reqToken); !found || reqToken == "" {
			authError(w, r, http.StatusUnauthorized, "bearer not in proper format")
			return
		}
		token, err := jwt.Parse(reqToken, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("error signing method: %v", token.Header["alg"])
			}
			return []byte(tc.Auth.SecretKey), nil
		})
		if err != nil {
			authError(w, r, http.StatusUnauthorized, fmt.Sprintf("error parsing JWT: %v", err))
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			authError(w, r, http.StatusUnauthorized, "failed authorization")
			return
		}
		user, ok := claims["user"].(string)
		if !ok {
			authError(w, r, http.StatusUnauthorized, fmt.Sprintf("user %v is not a simple string", claims["user"]))
			return
		}
		if !globalIsAuthorized(user, r.Method) {
			authError(w, r, http.StatusForbidden, fmt.Sprintf("user %q is not authorized", user))
			return
		}
		if c.Env == nil {
			c.Env = make(map[interface{}]interface{})
		}
		c.Env["user"] = user
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func authError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	copick.Warningf("%s %s: %s\n", r.Method, r.URL.Path, msg)
	http.Error(w, msg, status)
}

func loadAuthFile() error {
	if len(tc.Auth.AuthFile) == 0 {
		copick.Infof("No authorization file found.  Proceeding without authorization.\n")
		authorizedUsers = nil
		return nil
	}
	if tc.Auth.SecretKey == "" {
		return fmt.Errorf("auth_file %q given without a secret_key", tc.Auth.AuthFile)
	}
	data, err := os.ReadFile(tc.Auth.AuthFile)
	if err != nil {
		return err
	}
	var users map[string]string
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("bad authorization file %q: %v", tc.Auth.AuthFile, err)
	}
	authorizedUsers = users
	copick.Infof("Loaded %d authorized users from %s\n", len(users), tc.Auth.AuthFile)
	return nil
}

// privilege is the access level granted to a user in the auth file.
type privilege string

const (
	privRead      privilege = "read"
	privWrite     privilege = "write"
	privReadWrite privilege = "readwrite"
)

// allows returns true if the privilege permits the HTTP method.  GET and HEAD
// are reads; every other method is a write.
func (p privilege) allows(httpMethod string) (bool, error) {
	read := httpMethod == http.MethodGet || httpMethod == http.MethodHead
	switch p {
	case privReadWrite:
		return true, nil
	case privRead:
		return read, nil
	case privWrite:
		return !read, nil
	default:
		return false, fmt.Errorf("unparsable privilege %q", string(p))
	}
}

// globalIsAuthorized returns true if the auth file grants the user, or the
// wildcard user "*", a privilege allowing the method.
func globalIsAuthorized(user string, httpMethod string) bool {
	priv, found := authorizedUsers[user]
	if !found {
		if priv, found = authorizedUsers["*"]; !found {
			return false
		}
	}
	ok, err := privilege(priv).allows(strings.ToUpper(httpMethod))
	if err != nil {
		copick.Errorf("Authorized user %q: %v\n", user, err)
	}
	return ok
}
