// Package jolokia connects to MBeans through a Jolokia agent (JMX over HTTP/JSON).
package jolokia

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AndreyAkinshin/mbexec/internal/connector"
	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/mbean"
	"github.com/AndreyAkinshin/mbexec/internal/target"
)

// Defaults for Options.
const (
	DefaultScheme  = "http"
	DefaultPath    = "/jolokia"
	DefaultTimeout = 30 * time.Second
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// Options configures a Connector.
type Options struct {
	Scheme             string        // "http" or "https"
	Path               string        // Agent path on the endpoint
	Timeout            time.Duration // Per-request timeout
	InsecureSkipVerify bool          // Skip TLS verification for https
	Logger             *slog.Logger

	// Transport overrides the base HTTP transport.
	Transport http.RoundTripper
}

// Connector opens Jolokia connections. It is safe for concurrent use.
type Connector struct {
	client *http.Client
	scheme string
	path   string
	logger *slog.Logger
}

var _ connector.Connector = (*Connector)(nil)

// New creates a Connector. Zero fields in opts take their defaults.
func New(opts Options) *Connector {
	if opts.Scheme == "" {
		opts.Scheme = DefaultScheme
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if !strings.HasPrefix(opts.Path, "/") {
		opts.Path = "/" + opts.Path
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	base := opts.Transport
	if base == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
		}
		base = t
	}

	return &Connector{
		client: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   opts.Timeout,
		},
		scheme: opts.Scheme,
		path:   strings.TrimRight(opts.Path, "/") + "/",
		logger: opts.Logger,
	}
}

// Endpoint returns the agent URL for t.
func (c *Connector) Endpoint(t target.Target) string {
	return c.scheme + "://" + t.Address() + c.path
}

// Connect verifies the agent is reachable and the credentials are accepted
// by issuing a version request.
func (c *Connector) Connect(ctx context.Context, t target.Target) (connector.Connection, error) {
	conn := &Connection{
		client:   c.client,
		endpoint: c.Endpoint(t),
		target:   t,
		logger:   c.logger.With(slog.String("target", t.Label())),
	}

	var resp response
	if err := conn.do(ctx, request{Type: typeVersion}, &resp); err != nil {
		return nil, errors.Connect(t.Address(), err)
	}
	if err := resp.err(); err != nil {
		return nil, errors.Connect(t.Address(), err)
	}
	var info versionInfo
	if len(resp.Value) > 0 {
		_ = json.Unmarshal(resp.Value, &info)
	}
	conn.logger.DebugContext(ctx, "Connected to agent",
		slog.String("endpoint", conn.endpoint),
		slog.String("agent", info.Agent),
		slog.String("protocol", info.Protocol),
	)
	return conn, nil
}

// Connection is one target's agent session.
type Connection struct {
	client   *http.Client
	endpoint string
	target   target.Target
	logger   *slog.Logger
	closed   atomic.Bool
}

var _ connector.Connection = (*Connection)(nil)

// Introspect lists the attributes and operations of object.
func (c *Connection) Introspect(ctx context.Context, object mbean.ObjectName) (*mbean.Schema, error) {
	req := request{Type: typeList, Path: listPath(object)}
	resp, err := c.single(ctx, req)
	if err != nil {
		return nil, err
	}
	var info mbeanInfo
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		return nil, errors.Remote(req.describe(), fmt.Errorf("decode MBean info: %w", err))
	}
	schema, err := toSchema(info)
	if err != nil {
		return nil, errors.Remote(req.describe(), err)
	}
	return schema, nil
}

// SetAttributes writes every value in one bulk request. Per-attribute
// failures are joined.
func (c *Connection) SetAttributes(ctx context.Context, object mbean.ObjectName, values []mbean.AttributeValue) error {
	if len(values) == 0 {
		return nil
	}
	reqs := make([]request, len(values))
	for i, v := range values {
		reqs[i] = request{
			Type:      typeWrite,
			MBean:     object.String(),
			Attribute: v.Name,
			Value:     wireValue(v.Value),
		}
	}

	var resps []response
	if err := c.do(ctx, reqs, &resps); err != nil {
		return err
	}
	if len(resps) != len(reqs) {
		return fmt.Errorf("bulk write: got %d responses for %d requests", len(resps), len(reqs))
	}

	var errs []error
	for i, resp := range resps {
		if err := resp.err(); err != nil {
			errs = append(errs, errors.Remote(reqs[i].describe(), err))
		}
	}
	return stderrors.Join(errs...)
}

// Invoke executes the overload of operation whose signature is types.
func (c *Connection) Invoke(ctx context.Context, object mbean.ObjectName, operation string, values []any, types []string) error {
	req := request{
		Type:      typeExec,
		MBean:     object.String(),
		Operation: execOperation(operation, types),
		Arguments: wireValues(values),
	}
	resp, err := c.single(ctx, req)
	if err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "Operation returned",
		slog.String("operation", req.Operation),
		slog.String("value", string(resp.Value)),
	)
	return nil
}

// Close releases the connection. Later calls fail.
func (c *Connection) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *Connection) single(ctx context.Context, req request) (response, error) {
	var resp response
	if err := c.do(ctx, req, &resp); err != nil {
		return response{}, err
	}
	if err := resp.err(); err != nil {
		return response{}, errors.Remote(req.describe(), err)
	}
	return resp, nil
}

// do POSTs body as JSON and decodes the reply into out.
func (c *Connection) do(ctx context.Context, body any, out any) error {
	if c.closed.Load() {
		return fmt.Errorf("connection to %s is closed", c.target.Address())
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.target.HasCredentials() {
		httpReq.SetBasicAuth(c.target.Credentials.User, c.target.Credentials.Password)
	}

	c.logger.DebugContext(ctx, "Sending agent request",
		slog.String("endpoint", c.endpoint),
		slog.Int("bytes", len(payload)),
	)
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
