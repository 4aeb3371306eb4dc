package mocks

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/AndreyAkinshin/mbexec/internal/target"
)

// AgentAttribute is one attribute served by an Agent.
type AgentAttribute struct {
	Type  string
	RW    bool
	Value any
}

// AgentArg is one operation parameter served by an Agent.
type AgentArg struct {
	Name string
	Type string
}

// AgentOperation is one operation overload served by an Agent.
type AgentOperation struct {
	Args []AgentArg
	Ret  string
}

// AgentBean is one MBean served by an Agent.
type AgentBean struct {
	Class      string
	Attributes map[string]AgentAttribute
	Operations map[string][]AgentOperation
}

// AgentWrite records one accepted write request.
type AgentWrite struct {
	MBean     string
	Attribute string
	Value     any
}

// AgentExec records one accepted exec request.
type AgentExec struct {
	MBean     string
	Operation string
	Arguments []any
}

// Agent is an in-memory Jolokia agent for tests. Serve it with httptest.
// Use NewAgent() to create instances with a fluent builder API.
type Agent struct {
	user     string
	password string
	beans    map[string]*AgentBean
	// execErrors maps operation names to the error an exec returns.
	execErrors map[string]string

	requests atomic.Int32
	mu       sync.Mutex
	writes   []AgentWrite
	execs    []AgentExec
	bulks    int
}

// NewAgent creates an agent serving no MBeans.
func NewAgent() *Agent {
	return &Agent{
		beans:      make(map[string]*AgentBean),
		execErrors: make(map[string]string),
	}
}

// WithCredentials requires HTTP basic auth.
func (a *Agent) WithCredentials(user, password string) *Agent {
	a.user = user
	a.password = password
	return a
}

// WithBean serves a copy of bean under objectName.
func (a *Agent) WithBean(objectName string, bean AgentBean) *Agent {
	attrs := make(map[string]AgentAttribute, len(bean.Attributes))
	for name, attr := range bean.Attributes {
		attrs[name] = attr
	}
	bean.Attributes = attrs
	a.beans[objectName] = &bean
	return a
}

// WithExecError makes every exec of operation fail with message.
func (a *Agent) WithExecError(operation, message string) *Agent {
	a.execErrors[operation] = message
	return a
}

// Requests returns the number of HTTP requests served.
func (a *Agent) Requests() int {
	return int(a.requests.Load())
}

// BulkRequests returns the number of HTTP requests carrying a JSON array.
func (a *Agent) BulkRequests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bulks
}

// Writes returns the accepted write requests.
func (a *Agent) Writes() []AgentWrite {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make([]AgentWrite, len(a.writes))
	copy(result, a.writes)
	return result
}

// Execs returns the accepted exec requests.
func (a *Agent) Execs() []AgentExec {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make([]AgentExec, len(a.execs))
	copy(result, a.execs)
	return result
}

type agentRequest struct {
	Type      string          `json:"type"`
	MBean     string          `json:"mbean"`
	Attribute string          `json:"attribute"`
	Value     json.RawMessage `json:"value"`
	Operation string          `json:"operation"`
	Arguments []any           `json:"arguments"`
	Path      string          `json:"path"`
}

type agentResponse struct {
	Status    int    `json:"status"`
	Value     any    `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// ServeHTTP implements http.Handler.
func (a *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.requests.Add(1)
	if a.user != "" {
		user, password, ok := r.BasicAuth()
		if !ok || user != a.user || password != a.password {
			w.Header().Set("WWW-Authenticate", `Basic realm="jolokia"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
		var reqs []agentRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.mu.Lock()
		a.bulks++
		a.mu.Unlock()
		resps := make([]agentResponse, len(reqs))
		for i, req := range reqs {
			resps[i] = a.handle(req)
		}
		_ = json.NewEncoder(w).Encode(resps)
		return
	}

	var req agentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_ = json.NewEncoder(w).Encode(a.handle(req))
}

func (a *Agent) handle(req agentRequest) agentResponse {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch req.Type {
	case "version":
		return agentResponse{Status: 200, Value: map[string]string{"agent": "2.0.0", "protocol": "7.2"}}
	case "list":
		return a.list(req)
	case "write":
		return a.write(req)
	case "exec":
		return a.exec(req)
	default:
		return agentResponse{Status: 400, ErrorType: "java.lang.IllegalArgumentException", Error: "unknown type " + req.Type}
	}
}

func notFound(name string) agentResponse {
	return agentResponse{Status: 404, ErrorType: "javax.management.InstanceNotFoundException", Error: name}
}

func (a *Agent) list(req agentRequest) agentResponse {
	segments := splitAgentPath(req.Path)
	if len(segments) != 2 {
		return agentResponse{Status: 400, ErrorType: "java.lang.IllegalArgumentException", Error: "path must select one MBean"}
	}
	name := segments[0] + ":" + segments[1]
	bean, ok := a.beans[name]
	if !ok {
		return notFound(name)
	}

	attrs := make(map[string]any, len(bean.Attributes))
	for n, attr := range bean.Attributes {
		attrs[n] = map[string]any{"type": attr.Type, "rw": attr.RW, "desc": n}
	}
	ops := make(map[string]any, len(bean.Operations))
	for n, overloads := range bean.Operations {
		rendered := make([]any, len(overloads))
		for i, o := range overloads {
			args := make([]any, len(o.Args))
			for j, arg := range o.Args {
				args[j] = map[string]string{"name": arg.Name, "type": arg.Type, "desc": arg.Name}
			}
			ret := o.Ret
			if ret == "" {
				ret = "void"
			}
			rendered[i] = map[string]any{"args": args, "ret": ret, "desc": n}
		}
		if len(rendered) == 1 {
			ops[n] = rendered[0]
		} else {
			ops[n] = rendered
		}
	}
	return agentResponse{Status: 200, Value: map[string]any{
		"class": bean.Class,
		"desc":  "test bean",
		"attr":  attrs,
		"op":    ops,
	}}
}

func (a *Agent) write(req agentRequest) agentResponse {
	bean, ok := a.beans[req.MBean]
	if !ok {
		return notFound(req.MBean)
	}
	attr, ok := bean.Attributes[req.Attribute]
	if !ok {
		return agentResponse{Status: 404, ErrorType: "javax.management.AttributeNotFoundException", Error: req.Attribute}
	}
	if !attr.RW {
		return agentResponse{Status: 403, ErrorType: "java.lang.IllegalArgumentException", Error: req.Attribute + " is read-only"}
	}
	var value any
	_ = json.Unmarshal(req.Value, &value)

	previous := attr.Value
	attr.Value = value
	bean.Attributes[req.Attribute] = attr
	a.writes = append(a.writes, AgentWrite{MBean: req.MBean, Attribute: req.Attribute, Value: value})
	return agentResponse{Status: 200, Value: previous}
}

func (a *Agent) exec(req agentRequest) agentResponse {
	bean, ok := a.beans[req.MBean]
	if !ok {
		return notFound(req.MBean)
	}
	name, sig, _ := strings.Cut(req.Operation, "(")
	sig = strings.TrimSuffix(sig, ")")
	overloads, ok := bean.Operations[name]
	if !ok {
		return agentResponse{Status: 404, ErrorType: "java.lang.IllegalArgumentException", Error: "no operation " + name}
	}
	var types []string
	if sig != "" {
		types = strings.Split(sig, ",")
	}
	if !hasSignature(overloads, types) {
		return agentResponse{Status: 400, ErrorType: "java.lang.IllegalArgumentException", Error: "no overload " + req.Operation}
	}
	if len(req.Arguments) != len(types) {
		return agentResponse{Status: 400, ErrorType: "java.lang.IllegalArgumentException", Error: "argument count mismatch for " + req.Operation}
	}
	if msg, ok := a.execErrors[name]; ok {
		return agentResponse{Status: 500, ErrorType: "javax.management.MBeanException", Error: msg}
	}

	a.execs = append(a.execs, AgentExec{MBean: req.MBean, Operation: req.Operation, Arguments: req.Arguments})
	return agentResponse{Status: 200}
}

func hasSignature(overloads []AgentOperation, types []string) bool {
	for _, o := range overloads {
		if len(o.Args) != len(types) {
			continue
		}
		match := true
		for i, arg := range o.Args {
			if arg.Type != types[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// splitAgentPath splits a list path on unescaped "/" and removes "!" escapes.
func splitAgentPath(path string) []string {
	var parts []string
	var current strings.Builder
	escaped := false
	for _, r := range path {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '!':
			escaped = true
		case r == '/':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(parts, current.String())
}

// AgentTarget returns a Target pointing at an agent served at serverURL.
func AgentTarget(tb testing.TB, name, serverURL string) target.Target {
	tb.Helper()
	u, err := url.Parse(serverURL)
	if err != nil {
		tb.Fatalf("parse %q: %v", serverURL, err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		tb.Fatalf("split %q: %v", u.Host, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		tb.Fatalf("port %q: %v", portStr, err)
	}
	return target.Target{Name: name, Host: host, Port: port}
}
