package copick

import "testing"

func TestValidKey(t *testing.T) {
	for _, key := range []string{"0", "0/.zarray", ".zattrs", "0/1/2/3", "s0/0.0.0"} {
		if err := ValidKey(key); err != nil {
			t.Errorf("expected %q to be valid: %v\n", key, err)
		}
	}
	for _, key := range []string{"", "/0", "0/", "0//1", "../secret", "0/./1", "a/../../b"} {
		if err := ValidKey(key); err == nil {
			t.Errorf("expected %q to be invalid\n", key)
		}
	}
}

func TestConvertToAbsolute(t *testing.T) {
	abs, err := ConvertToAbsolute("logs/copick.log", "/etc/copick")
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if abs != "/etc/copick/logs/copick.log" {
		t.Errorf("bad absolute path: %s\n", abs)
	}
	abs, err = ConvertToAbsolute("/var/log/copick.log", "/etc/copick")
	if err != nil || abs != "/var/log/copick.log" {
		t.Errorf("absolute path altered: %s, %v\n", abs, err)
	}
	if _, err := ConvertToAbsolute("", "/etc"); err == nil {
		t.Errorf("expected error on empty path\n")
	}
}
