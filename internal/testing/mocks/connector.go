// Package mocks provides shared test doubles for mbexec packages.
package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/AndreyAkinshin/mbexec/internal/connector"
	"github.com/AndreyAkinshin/mbexec/internal/mbean"
	"github.com/AndreyAkinshin/mbexec/internal/target"
)

// Commit records one SetAttributes call.
type Commit struct {
	Host   string
	Object string
	Values []mbean.AttributeValue
}

// Invocation records one Invoke call.
type Invocation struct {
	Host      string
	Object    string
	Operation string
	Values    []any
	Types     []string
}

// Connector implements connector.Connector for testing.
// Use NewConnector() to create instances with a fluent builder API.
// Every connection it opens serves the same schema and shares its tracking.
type Connector struct {
	schema *mbean.Schema

	// ConnectFunc is called by Connect before a connection is opened.
	// A non-nil error fails the connect.
	ConnectFunc func(ctx context.Context, t target.Target) error
	// SetFunc is called by SetAttributes. If nil, SetAttributes returns nil.
	SetFunc func(ctx context.Context, t target.Target, values []mbean.AttributeValue) error
	// InvokeFunc is called by Invoke. If nil, Invoke returns nil.
	InvokeFunc func(ctx context.Context, t target.Target, operation string, values []any) error
	// IntrospectFunc overrides the schema returned by Introspect.
	IntrospectFunc func(ctx context.Context, t target.Target, object mbean.ObjectName) (*mbean.Schema, error)

	// Execution tracking (thread-safe)
	connectCount int32
	closeCount   int32
	mu           sync.Mutex
	connectOrder []string
	commits      []Commit
	invocations  []Invocation
}

// NewConnector creates a mock connector whose connections expose schema.
func NewConnector(schema *mbean.Schema) *Connector {
	return &Connector{schema: schema}
}

// WithConnectFunc sets the function called by Connect.
func (m *Connector) WithConnectFunc(fn func(ctx context.Context, t target.Target) error) *Connector {
	m.ConnectFunc = fn
	return m
}

// WithSetFunc sets the function called by SetAttributes.
func (m *Connector) WithSetFunc(fn func(ctx context.Context, t target.Target, values []mbean.AttributeValue) error) *Connector {
	m.SetFunc = fn
	return m
}

// WithInvokeFunc sets the function called by Invoke.
func (m *Connector) WithInvokeFunc(fn func(ctx context.Context, t target.Target, operation string, values []any) error) *Connector {
	m.InvokeFunc = fn
	return m
}

// WithIntrospectFunc sets the function called by Introspect.
func (m *Connector) WithIntrospectFunc(fn func(ctx context.Context, t target.Target, object mbean.ObjectName) (*mbean.Schema, error)) *Connector {
	m.IntrospectFunc = fn
	return m
}

// Connect implements connector.Connector.
func (m *Connector) Connect(ctx context.Context, t target.Target) (connector.Connection, error) {
	atomic.AddInt32(&m.connectCount, 1)
	m.mu.Lock()
	m.connectOrder = append(m.connectOrder, t.Host)
	m.mu.Unlock()

	if m.ConnectFunc != nil {
		if err := m.ConnectFunc(ctx, t); err != nil {
			return nil, err
		}
	}
	return &Connection{parent: m, target: t}, nil
}

// Test inspection methods

// ConnectCount returns the number of times Connect was called.
func (m *Connector) ConnectCount() int32 {
	return atomic.LoadInt32(&m.connectCount)
}

// CloseCount returns the number of connections closed.
func (m *Connector) CloseCount() int32 {
	return atomic.LoadInt32(&m.closeCount)
}

// ConnectOrder returns the hosts in the order Connect was called.
func (m *Connector) ConnectOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.connectOrder))
	copy(result, m.connectOrder)
	return result
}

// Commits returns every SetAttributes call.
func (m *Connector) Commits() []Commit {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Commit, len(m.commits))
	copy(result, m.commits)
	return result
}

// Invocations returns every Invoke call.
func (m *Connector) Invocations() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Invocation, len(m.invocations))
	copy(result, m.invocations)
	return result
}

// Reset clears execution tracking state.
func (m *Connector) Reset() {
	atomic.StoreInt32(&m.connectCount, 0)
	atomic.StoreInt32(&m.closeCount, 0)
	m.mu.Lock()
	m.connectOrder = nil
	m.commits = nil
	m.invocations = nil
	m.mu.Unlock()
}

// Connection implements connector.Connection for testing.
type Connection struct {
	parent *Connector
	target target.Target
	closed atomic.Bool
}

func (c *Connection) Introspect(ctx context.Context, object mbean.ObjectName) (*mbean.Schema, error) {
	if c.parent.IntrospectFunc != nil {
		return c.parent.IntrospectFunc(ctx, c.target, object)
	}
	return c.parent.schema, nil
}

func (c *Connection) SetAttributes(ctx context.Context, object mbean.ObjectName, values []mbean.AttributeValue) error {
	c.parent.mu.Lock()
	c.parent.commits = append(c.parent.commits, Commit{
		Host:   c.target.Host,
		Object: object.String(),
		Values: values,
	})
	c.parent.mu.Unlock()

	if c.parent.SetFunc != nil {
		return c.parent.SetFunc(ctx, c.target, values)
	}
	return nil
}

func (c *Connection) Invoke(ctx context.Context, object mbean.ObjectName, operation string, values []any, types []string) error {
	c.parent.mu.Lock()
	c.parent.invocations = append(c.parent.invocations, Invocation{
		Host:      c.target.Host,
		Object:    object.String(),
		Operation: operation,
		Values:    values,
		Types:     types,
	})
	c.parent.mu.Unlock()

	if c.parent.InvokeFunc != nil {
		return c.parent.InvokeFunc(ctx, c.target, operation, values)
	}
	return nil
}

func (c *Connection) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		atomic.AddInt32(&c.parent.closeCount, 1)
	}
	return nil
}
