package schema

import (
	"strings"
	"testing"
)

func TestValidateConfig_Valid(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"minimal": `{
			"object_name": "java.lang:type=Memory",
			"servers": [{"host": "10.0.0.1", "port": 8778}]
		}`,
		"full": `{
			"$schema": "https://example.invalid/config.schema.json",
			"object_name": "com.example:type=Cache,name=users",
			"servers": [
				{"name": "a", "host": "10.0.0.5", "port": 8778,
				 "credentials": {"user": "admin", "password_env": "CACHE_PASSWORD"}}
			],
			"attributes": [
				{"name": "MaxSize", "value": "1000"},
				{"name": "Ratio", "value": 0.5},
				{"name": "Enabled", "value": true}
			],
			"operations": [{"name": "clear"}, {"name": "evict", "parameters": ["k", 60]}],
			"max_parallelism": 4,
			"connector": {"scheme": "https", "path": "/jolokia", "timeout_ms": 5000, "insecure_skip_verify": true},
			"tracing": {"enabled": true, "endpoint": "http://localhost:4318", "insecure": true},
			"journal": {"path": "runs.db"}
		}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if err := ValidateConfig([]byte(doc)); err != nil {
				t.Errorf("expected valid config, got error: %v", err)
			}
		})
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"missing object_name": `{"servers": [{"host": "h", "port": 1}]}`,
		"missing servers":     `{"object_name": "a:b=c"}`,
		"empty servers":       `{"object_name": "a:b=c", "servers": []}`,
		"object name without colon": `{
			"object_name": "java.lang", "servers": [{"host": "h", "port": 1}]}`,
		"port out of range": `{
			"object_name": "a:b=c", "servers": [{"host": "h", "port": 70000}]}`,
		"port as string": `{
			"object_name": "a:b=c", "servers": [{"host": "h", "port": "8778"}]}`,
		"parallelism zero": `{
			"object_name": "a:b=c", "servers": [{"host": "h", "port": 1}], "max_parallelism": 0}`,
		"bad scheme": `{
			"object_name": "a:b=c", "servers": [{"host": "h", "port": 1}], "connector": {"scheme": "ftp"}}`,
		"object value": `{
			"object_name": "a:b=c", "servers": [{"host": "h", "port": 1}],
			"attributes": [{"name": "x", "value": {"nested": 1}}]}`,
		"credentials without user": `{
			"object_name": "a:b=c", "servers": [{"host": "h", "port": 1, "credentials": {"password": "p"}}]}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			err := ValidateConfig([]byte(doc))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "config validation failed") {
				t.Errorf("error = %q, want schema validation failure", err)
			}
		})
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	t.Parallel()
	err := ValidateConfig([]byte(`{"object_name":`))
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("ValidateConfig() error = %v, want invalid JSON", err)
	}
}
