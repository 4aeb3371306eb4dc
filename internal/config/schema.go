// Package config provides configuration loading and validation for mbexec.json.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/mbean"
)

// Config represents the complete mbexec configuration.
type Config struct {
	ObjectName     string            `json:"object_name" validate:"required"`
	Servers        []ServerConfig    `json:"servers" validate:"required,min=1,dive"`
	Attributes     []AttributeConfig `json:"attributes,omitempty" validate:"dive"`
	Operations     []OperationConfig `json:"operations,omitempty" validate:"dive"`
	MaxParallelism int               `json:"max_parallelism,omitempty" validate:"min=1,max=256"`
	Connector      *ConnectorConfig  `json:"connector,omitempty"`
	Tracing        *TracingConfig    `json:"tracing,omitempty"`
	Journal        *JournalConfig    `json:"journal,omitempty"`
}

// ServerConfig identifies one target host.
type ServerConfig struct {
	Name        string             `json:"name,omitempty"`
	Host        string             `json:"host" validate:"required"`
	Port        int                `json:"port" validate:"required,min=1,max=65535"`
	Credentials *CredentialsConfig `json:"credentials,omitempty"`
}

// CredentialsConfig authenticates against a server.
// PasswordEnv, when set, names the environment variable holding the password.
type CredentialsConfig struct {
	User        string `json:"user" validate:"required"`
	Password    string `json:"password,omitempty"`
	PasswordEnv string `json:"password_env,omitempty"`
}

// ResolvePassword returns the password, reading PasswordEnv when set.
func (c *CredentialsConfig) ResolvePassword() (string, error) {
	if c.PasswordEnv == "" {
		return c.Password, nil
	}
	v, ok := os.LookupEnv(c.PasswordEnv)
	if !ok || v == "" {
		return "", errors.Configf("password_env %q is not set", c.PasswordEnv)
	}
	return v, nil
}

// AttributeConfig requests one attribute write.
type AttributeConfig struct {
	Name  string  `json:"name" validate:"required"`
	Value Literal `json:"value"`
}

// OperationConfig requests one operation invocation.
type OperationConfig struct {
	Name       string    `json:"name" validate:"required"`
	Parameters []Literal `json:"parameters,omitempty"`
}

// ConnectorConfig configures the Jolokia connector.
type ConnectorConfig struct {
	Scheme             string `json:"scheme,omitempty" validate:"omitempty,oneof=http https"`
	Path               string `json:"path,omitempty"`
	TimeoutMS          int    `json:"timeout_ms,omitempty" validate:"min=0"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty"`
}

// Timeout returns TimeoutMS as a duration.
func (c *ConnectorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`
	Insecure bool   `json:"insecure,omitempty"`
}

// JournalConfig configures the run journal. An empty Path disables it.
type JournalConfig struct {
	Path string `json:"path,omitempty"`
}

// Literal is a value written as a JSON string, number or boolean. It keeps
// the literal text so "1000", 1000 and 1e3 reach the coercer as written.
type Literal string

// UnmarshalJSON implements json.Unmarshaler.
func (l *Literal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Literal(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return errors.Configf("value must be a string, number or boolean, got %s", data)
	}
	*l = Literal(data)
	return nil
}

// ObjectNameValue parses ObjectName.
func (c *Config) ObjectNameValue() (mbean.ObjectName, error) {
	return mbean.ParseObjectName(c.ObjectName)
}

// AttributeRequests returns the configured attribute writes in order.
func (c *Config) AttributeRequests() []mbean.AttributeRequest {
	reqs := make([]mbean.AttributeRequest, len(c.Attributes))
	for i, a := range c.Attributes {
		reqs[i] = mbean.AttributeRequest{Name: a.Name, Value: string(a.Value)}
	}
	return reqs
}

// OperationRequests returns the configured operation invocations in order.
func (c *Config) OperationRequests() []mbean.OperationRequest {
	reqs := make([]mbean.OperationRequest, len(c.Operations))
	for i, op := range c.Operations {
		params := make([]string, len(op.Parameters))
		for j, p := range op.Parameters {
			params[j] = string(p)
		}
		reqs[i] = mbean.OperationRequest{Name: op.Name, Parameters: params}
	}
	return reqs
}
