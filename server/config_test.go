package server

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testTOML = `
[server]
httpAddress = "0.0.0.0:9000"
host = "copick.example.org"
note = "test server"
cors = ["http://a.example.org", "http://b.example.org"]
max_body_mb = 64

[project]
config = "project/copick_config.json"
overlay_root = "overlay"
static_root = "gs://bucket/static"

[cache]
static_mb = 32

[logging]
logfile = "logs/copick.log"
level = "warning"
max_log_size = 100
max_log_age = 7

[kafka]
servers = ["localhost:9092"]
topic_activity = "copick-test"
`

func TestLoadConfig(t *testing.T) {
	saved := tc
	defer func() { tc = saved }()

	dir := t.TempDir()
	filename := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(filename, []byte(testTOML), 0644); err != nil {
		t.Fatalf("unable to write config: %v\n", err)
	}
	if err := LoadConfig(filename); err != nil {
		t.Fatalf("unable to load config: %v\n", err)
	}
	if HTTPAddress() != "0.0.0.0:9000" || Host() != "copick.example.org:9000" || Note() != "test server" {
		t.Errorf("bad server settings: %+v\n", tc.Server)
	}
	if len(CorsOrigins()) != 2 || MaxBodyBytes() != 64<<20 || StaticCacheBytes() != 32<<20 {
		t.Errorf("bad limits: %+v %+v\n", tc.Server, tc.Cache)
	}
	if tc.Server.ShutdownDelay != DefaultShutdownDelay {
		t.Errorf("expected default shutdown delay, got %d\n", tc.Server.ShutdownDelay)
	}
	if ProjectConfigFile() != filepath.Join(dir, "project", "copick_config.json") {
		t.Errorf("project config not made absolute: %s\n", ProjectConfigFile())
	}
	if tc.Project.OverlayRoot != filepath.Join(dir, "overlay") || tc.Project.StaticRoot != "gs://bucket/static" {
		t.Errorf("bad roots: %+v\n", tc.Project)
	}
	if LogConfig().Logfile != filepath.Join(dir, "logs", "copick.log") || LogConfig().MaxAge != 7 || LogConfig().Level != "warning" {
		t.Errorf("bad logging: %+v\n", tc.Logging)
	}
	if len(KafkaServers()) != 1 || tc.Kafka.TopicActivity != "copick-test" {
		t.Errorf("bad kafka: %+v\n", tc.Kafka)
	}
	if ConfigLocation() != filename {
		t.Errorf("bad config location %q\n", ConfigLocation())
	}

	if err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Errorf("expected error loading missing config\n")
	}
	if err := LoadConfig(""); err == nil {
		t.Errorf("expected error with no config file\n")
	}
}

func TestOverrides(t *testing.T) {
	saved := tc
	defer func() { tc = saved }()
	tc = defaultConfig()

	SetHTTPAddress("", "9100")
	if HTTPAddress() != "127.0.0.1:9100" {
		t.Errorf("bad address after port override: %s\n", HTTPAddress())
	}
	SetHTTPAddress("0.0.0.0", "")
	if HTTPAddress() != "0.0.0.0:9100" {
		t.Errorf("bad address after host override: %s\n", HTTPAddress())
	}
	SetCors(nil)
	if len(CorsOrigins()) != 0 {
		t.Errorf("unexpected cors origins %v\n", CorsOrigins())
	}
	SetCors([]string{"*"})
	if len(CorsOrigins()) != 1 {
		t.Errorf("cors override not applied\n")
	}

	dir := t.TempDir()
	project := filepath.Join(dir, "copick_config.json")
	doc := `{"name": "p", "overlay_root": "local:///tmp/overlay", "static_root": "local:///tmp/static"}`
	if err := os.WriteFile(project, []byte(doc), 0644); err != nil {
		t.Fatalf("unable to write project: %v\n", err)
	}
	if _, err := LoadProject(); err == nil {
		t.Errorf("expected error loading project before one is set\n")
	}
	if err := SetProjectConfig(project); err != nil {
		t.Fatalf("unable to set project: %v\n", err)
	}
	SetOverlayRoot("mem://")
	config, err := LoadProject()
	if err != nil {
		t.Fatalf("unable to load project: %v\n", err)
	}
	if config.OverlayRoot != "mem://" || config.StaticRoot != "local:///tmp/static" {
		t.Errorf("bad roots after override: %+v\n", config)
	}
}

func TestLoadConfigHidesSecret(t *testing.T) {
	saved := tc
	defer func() { tc = saved }()

	var buf bytes.Buffer
	savedOut := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(savedOut)

	dir := t.TempDir()
	filename := filepath.Join(dir, "config.toml")
	config := "[auth]\nauth_file = \"auth.json\"\nsecret_key = \"hmac-super-secret\"\n"
	if err := os.WriteFile(filename, []byte(config), 0644); err != nil {
		t.Fatalf("unable to write config: %v\n", err)
	}
	if err := LoadConfig(filename); err != nil {
		t.Fatalf("unable to load config: %v\n", err)
	}
	if tc.Auth.SecretKey != "hmac-super-secret" {
		t.Fatalf("secret key not loaded: %q\n", tc.Auth.SecretKey)
	}
	out := buf.String()
	if !strings.Contains(out, "tomlConfig") {
		t.Fatalf("expected config to be logged, got %q\n", out)
	}
	if strings.Contains(out, "hmac-super-secret") {
		t.Errorf("secret key appears in log output: %q\n", out)
	}
}
