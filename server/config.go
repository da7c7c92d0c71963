package server

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
	"github.com/kephale/copick-server/storage"
)

const (
	// DefaultWebAddress is the default address of the copick web server.
	DefaultWebAddress = "127.0.0.1:8000"

	// DefaultShutdownDelay is the default number of seconds to wait before shutdown.
	DefaultShutdownDelay = 5
)

var (
	// DefaultHost is the default most understandable alias for this server.
	DefaultHost = "localhost"

	// the parsed TOML configuration data
	tc tomlConfig

	// the TOML config file location
	tcLocation string
)

func init() {
	// Set default Host name for understandability from user perspective.
	cmd := exec.Command("/bin/hostname", "-f")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err == nil {
		if host := strings.TrimSpace(out.String()); host != "" {
			DefaultHost = host
		}
	}
	tc = defaultConfig()
}

func defaultConfig() tomlConfig {
	var c tomlConfig
	c.Server.HTTPAddress = DefaultWebAddress
	c.Server.ShutdownDelay = DefaultShutdownDelay
	return c
}

type tomlConfig struct {
	Server  serverConfig
	Project projectConfig
	Cache   cacheConfig
	Logging copick.LogConfig
	Kafka   storage.KafkaConfig
	Auth    authConfig
}

type serverConfig struct {
	HTTPAddress   string   `toml:"httpAddress"`
	Host          string   `toml:"host"`
	Note          string   `toml:"note"`
	Cors          []string `toml:"cors"`
	MaxBodyMB     int      `toml:"max_body_mb"`
	ShutdownDelay int      `toml:"shutdown_delay"`
}

// projectConfig names the copick project to serve.  Roots given here override
// those in the project configuration file.
type projectConfig struct {
	Config      string `toml:"config"`
	OverlayRoot string `toml:"overlay_root"`
	StaticRoot  string `toml:"static_root"`
}

type cacheConfig struct {
	StaticMB int `toml:"static_mb"`
}

// isBarePath returns true if a root reference is a file path rather than a URL.
func isBarePath(ref string) bool {
	return ref != "" && !strings.Contains(ref, "://")
}

// Some settings in the TOML can be given as relative paths.
// This function converts them in-place to absolute paths,
// assuming the given paths were relative to the TOML file's own directory.
func (c *tomlConfig) convertPathsToAbsolute(configPath string) error {
	var err error

	configDir := filepath.Dir(configPath)

	// [project].config
	if c.Project.Config != "" {
		c.Project.Config, err = copick.ConvertToAbsolute(c.Project.Config, configDir)
		if err != nil {
			return fmt.Errorf("error converting project config to absolute path: %v", err)
		}
	}

	// [project].overlay_root and static_root
	if isBarePath(c.Project.OverlayRoot) {
		c.Project.OverlayRoot, err = copick.ConvertToAbsolute(c.Project.OverlayRoot, configDir)
		if err != nil {
			return fmt.Errorf("error converting overlay_root to absolute path: %v", err)
		}
	}
	if isBarePath(c.Project.StaticRoot) {
		c.Project.StaticRoot, err = copick.ConvertToAbsolute(c.Project.StaticRoot, configDir)
		if err != nil {
			return fmt.Errorf("error converting static_root to absolute path: %v", err)
		}
	}

	// [logging].logfile
	if c.Logging.Logfile != "" {
		c.Logging.Logfile, err = copick.ConvertToAbsolute(c.Logging.Logfile, configDir)
		if err != nil {
			return fmt.Errorf("error converting logfile setting to absolute path: %v", err)
		}
	}

	// [auth].auth_file
	if c.Auth.AuthFile != "" {
		c.Auth.AuthFile, err = copick.ConvertToAbsolute(c.Auth.AuthFile, configDir)
		if err != nil {
			return fmt.Errorf("error converting auth_file setting to absolute path: %v", err)
		}
	}
	return nil
}

// LoadConfig loads server configuration from a TOML file.  Settings not in the
// file keep their defaults.
func LoadConfig(filename string) error {
	if filename == "" {
		return fmt.Errorf("no server TOML configuration file provided")
	}
	c := defaultConfig()
	if _, err := toml.DecodeFile(filename, &c); err != nil {
		return fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return fmt.Errorf("could not convert relative paths to absolute paths in TOML config: %v", err)
	}
	tc = c
	tcLocation = filename
	copick.Infof("tomlConfig: %v\n", tc.redacted())
	return nil
}

// redacted returns a copy of the configuration safe for logging.
func (c tomlConfig) redacted() tomlConfig {
	if c.Auth.SecretKey != "" {
		c.Auth.SecretKey = "<redacted>"
	}
	return c
}

// SetHTTPAddress overrides the web address.  Empty host or port keep the
// configured ones.
func SetHTTPAddress(host, port string) {
	curHost, curPort := DefaultWebAddress, ""
	if parts := strings.Split(tc.Server.HTTPAddress, ":"); len(parts) == 2 {
		curHost, curPort = parts[0], parts[1]
	}
	if host == "" {
		host = curHost
	}
	if port == "" {
		port = curPort
	}
	tc.Server.HTTPAddress = host + ":" + port
}

// SetCors overrides the allowed CORS origins.  A nil list keeps the configured ones.
func SetCors(origins []string) {
	if origins != nil {
		tc.Server.Cors = origins
	}
}

// SetProjectConfig overrides the copick project configuration file.
func SetProjectConfig(filename string) error {
	if filename == "" {
		return nil
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	tc.Project.Config = abs
	return nil
}

// SetOverlayRoot overrides the project's overlay root.
func SetOverlayRoot(root string) {
	if root != "" {
		tc.Project.OverlayRoot = root
	}
}

// ProjectConfigFile returns the configured copick project file.
func ProjectConfigFile() string {
	return tc.Project.Config
}

// LoadProject reads the copick project configuration and applies root
// overrides from the server configuration.
func LoadProject() (*datastore.ProjectConfig, error) {
	if tc.Project.Config == "" {
		return nil, fmt.Errorf("no copick project configuration given")
	}
	config, err := datastore.LoadProjectConfig(tc.Project.Config)
	if err != nil {
		return nil, err
	}
	if tc.Project.OverlayRoot != "" {
		config.OverlayRoot = tc.Project.OverlayRoot
	}
	if tc.Project.StaticRoot != "" {
		config.StaticRoot = tc.Project.StaticRoot
	}
	return config, nil
}

// StaticCacheBytes returns the size of the static root read cache.
func StaticCacheBytes() int {
	return tc.Cache.StaticMB * copick.Mega
}

// Host returns the most understandable host alias + any port.
func Host() string {
	host := tc.Server.Host
	if host == "" {
		host = DefaultHost
	}
	parts := strings.Split(tc.Server.HTTPAddress, ":")
	if len(parts) > 1 {
		host = host + ":" + parts[len(parts)-1]
	}
	return host
}

func ConfigLocation() string {
	return tcLocation
}

func Note() string {
	return tc.Server.Note
}

func HTTPAddress() string {
	return tc.Server.HTTPAddress
}

func CorsOrigins() []string {
	return tc.Server.Cors
}

// MaxBodyBytes returns the limit on request bodies or 0 for no limit.
func MaxBodyBytes() int64 {
	return int64(tc.Server.MaxBodyMB) * copick.Mega
}

func LogConfig() *copick.LogConfig {
	return &tc.Logging
}

func KafkaServers() []string {
	if len(tc.Kafka.Servers) != 0 {
		return tc.Kafka.Servers
	}
	return nil
}
