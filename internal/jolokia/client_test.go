package jolokia

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/mbean"
	"github.com/AndreyAkinshin/mbexec/internal/target"
	"github.com/AndreyAkinshin/mbexec/internal/testing/mocks"
)

const cacheName = "com.example:type=Cache,name=users"

func cacheBean() mocks.AgentBean {
	return mocks.AgentBean{
		Class: "com.example.Cache",
		Attributes: map[string]mocks.AgentAttribute{
			"MaxSize": {Type: "int", RW: true, Value: 100},
			"Enabled": {Type: "boolean", RW: true, Value: false},
			"Size":    {Type: "long"},
			"Ratio":   {Type: "double", RW: true, Value: 0.5},
		},
		Operations: map[string][]mocks.AgentOperation{
			"clear": {{}},
			"evict": {
				{Args: []mocks.AgentArg{{Name: "key", Type: "java.lang.String"}}},
				{Args: []mocks.AgentArg{{Name: "key", Type: "java.lang.String"}, {Name: "ttl", Type: "long"}}},
			},
			"scale": {{Args: []mocks.AgentArg{{Name: "factor", Type: "float"}}}},
		},
	}
}

func startAgent(t *testing.T, agent *mocks.Agent) target.Target {
	t.Helper()
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)
	return mocks.AgentTarget(t, "agent", srv.URL)
}

func objectName(t *testing.T) mbean.ObjectName {
	t.Helper()
	o, err := mbean.ParseObjectName(cacheName)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func connect(t *testing.T, agent *mocks.Agent) *Connection {
	t.Helper()
	tg := startAgent(t, agent)
	conn, err := New(Options{Timeout: 5 * time.Second}).Connect(context.Background(), tg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn.(*Connection)
}

func TestEscapePath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"java.lang", "java.lang"},
		{"type=a/b", "type=a!/b"},
		{"name=wow!", "name=wow!!"},
		{`name="q"`, `name=!"q!"`},
	}
	for _, tt := range tests {
		if got := escapePath(tt.in); got != tt.want {
			t.Errorf("escapePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestListPath(t *testing.T) {
	t.Parallel()
	o, err := mbean.ParseObjectName("com.example:type=Cache,path=/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if got := listPath(o); got != "com.example/type=Cache,path=!/a!/b" {
		t.Errorf("listPath() = %q", got)
	}
}

func TestExecOperation(t *testing.T) {
	t.Parallel()
	if got := execOperation("evict", []string{"java.lang.String", "long"}); got != "evict(java.lang.String,long)" {
		t.Errorf("execOperation() = %q", got)
	}
	if got := execOperation("clear", nil); got != "clear()" {
		t.Errorf("execOperation() = %q", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	c := New(Options{})
	tg := target.Target{Host: "h", Port: 8778}
	if got := c.Endpoint(tg); got != "http://h:8778/jolokia/" {
		t.Errorf("Endpoint() = %q", got)
	}
	if c.client.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.client.Timeout, DefaultTimeout)
	}

	c = New(Options{Scheme: "https", Path: "agent/"})
	if got := c.Endpoint(tg); got != "https://h:8778/agent/" {
		t.Errorf("Endpoint() = %q", got)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	tg := mocks.AgentTarget(t, "gone", srv.URL)
	srv.Close()

	_, err := New(Options{Timeout: time.Second}).Connect(context.Background(), tg)
	if !errors.IsKind(err, errors.KindConnect) {
		t.Fatalf("Connect() error = %v, want connect error", err)
	}
	if errors.GetExitCode(err) != errors.ExitEnvironmentError {
		t.Errorf("exit code = %d, want %d", errors.GetExitCode(err), errors.ExitEnvironmentError)
	}
}

func TestConnect_Credentials(t *testing.T) {
	t.Parallel()
	agent := mocks.NewAgent().WithCredentials("admin", "secret")
	tg := startAgent(t, agent)
	c := New(Options{Timeout: 5 * time.Second})

	if _, err := c.Connect(context.Background(), tg); !errors.IsKind(err, errors.KindConnect) {
		t.Errorf("Connect() without credentials error = %v, want connect error", err)
	}

	tg.Credentials = &target.Credentials{User: "admin", Password: "wrong"}
	if _, err := c.Connect(context.Background(), tg); !errors.IsKind(err, errors.KindConnect) {
		t.Errorf("Connect() with wrong password error = %v, want connect error", err)
	}

	tg.Credentials = &target.Credentials{User: "admin", Password: "secret"}
	conn, err := c.Connect(context.Background(), tg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	_ = conn.Close()
}

func TestIntrospect(t *testing.T) {
	t.Parallel()
	conn := connect(t, mocks.NewAgent().WithBean(cacheName, cacheBean()))

	schema, err := conn.Introspect(context.Background(), objectName(t))
	if err != nil {
		t.Fatalf("Introspect() error = %v", err)
	}
	if schema.ClassName != "com.example.Cache" {
		t.Errorf("ClassName = %q", schema.ClassName)
	}

	idx := mbean.BuildIndex(schema)
	if got := idx.AttributeNames(); !reflect.DeepEqual(got, []string{"Enabled", "MaxSize", "Ratio", "Size"}) {
		t.Errorf("AttributeNames() = %v", got)
	}
	if a, _ := idx.Attribute("MaxSize"); a.Type != "int" || !a.Writable {
		t.Errorf("MaxSize = %+v", a)
	}
	if a, _ := idx.Attribute("Size"); a.Writable {
		t.Errorf("Size should be read-only")
	}

	evict := idx.Overloads("evict")
	if len(evict) != 2 || len(evict[0].Parameters) != 1 || len(evict[1].Parameters) != 2 {
		t.Fatalf("evict overloads = %+v", evict)
	}
	if evict[1].Signature() != "evict(java.lang.String,long)" {
		t.Errorf("evict[1] = %s", evict[1].Signature())
	}
	if clear := idx.Overloads("clear"); len(clear) != 1 || clear[0].ReturnType != "void" {
		t.Errorf("clear overloads = %+v", clear)
	}
}

func TestIntrospect_UnknownBean(t *testing.T) {
	t.Parallel()
	conn := connect(t, mocks.NewAgent())
	_, err := conn.Introspect(context.Background(), objectName(t))
	if !errors.IsKind(err, errors.KindRemote) {
		t.Fatalf("Introspect() error = %v, want remote error", err)
	}
	if !strings.Contains(err.Error(), "InstanceNotFoundException") {
		t.Errorf("error %q should carry the agent error type", err)
	}
}

func TestSetAttributes_Bulk(t *testing.T) {
	t.Parallel()
	agent := mocks.NewAgent().WithBean(cacheName, cacheBean())
	conn := connect(t, agent)
	before := agent.BulkRequests()

	err := conn.SetAttributes(context.Background(), objectName(t), []mbean.AttributeValue{
		{Name: "MaxSize", Type: "int", Value: int32(500)},
		{Name: "Enabled", Type: "boolean", Value: false},
	})
	if err != nil {
		t.Fatalf("SetAttributes() error = %v", err)
	}
	if got := agent.BulkRequests() - before; got != 1 {
		t.Errorf("bulk requests = %d, want 1", got)
	}

	writes := agent.Writes()
	if len(writes) != 2 {
		t.Fatalf("writes = %+v", writes)
	}
	if writes[0].Attribute != "MaxSize" || writes[0].Value != float64(500) {
		t.Errorf("writes[0] = %+v", writes[0])
	}
	if writes[1].Attribute != "Enabled" || writes[1].Value != false {
		t.Errorf("writes[1] = %+v (false must be sent, not omitted)", writes[1])
	}
}

func TestSetAttributes_NonFinite(t *testing.T) {
	t.Parallel()
	agent := mocks.NewAgent().WithBean(cacheName, cacheBean())
	conn := connect(t, agent)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := conn.SetAttributes(context.Background(), objectName(t), []mbean.AttributeValue{
			{Name: "Ratio", Type: "double", Value: v},
		})
		if err != nil {
			t.Fatalf("SetAttributes(%v) error = %v", v, err)
		}
	}

	var got []any
	for _, w := range agent.Writes() {
		got = append(got, w.Value)
	}
	if want := []any{"NaN", "Infinity", "-Infinity"}; !reflect.DeepEqual(got, want) {
		t.Errorf("written values = %v, want %v", got, want)
	}
}

func TestSetAttributes_PartialFailure(t *testing.T) {
	t.Parallel()
	conn := connect(t, mocks.NewAgent().WithBean(cacheName, cacheBean()))
	err := conn.SetAttributes(context.Background(), objectName(t), []mbean.AttributeValue{
		{Name: "MaxSize", Type: "int", Value: int32(1)},
		{Name: "Size", Type: "long", Value: int64(1)},
	})
	if !errors.IsKind(err, errors.KindRemote) {
		t.Fatalf("SetAttributes() error = %v, want remote error", err)
	}
	if !strings.Contains(err.Error(), "write Size") {
		t.Errorf("error %q should name the failed attribute", err)
	}
}

func TestSetAttributes_Empty(t *testing.T) {
	t.Parallel()
	agent := mocks.NewAgent().WithBean(cacheName, cacheBean())
	conn := connect(t, agent)
	before := agent.Requests()
	if err := conn.SetAttributes(context.Background(), objectName(t), nil); err != nil {
		t.Fatal(err)
	}
	if agent.Requests() != before {
		t.Error("empty write should not contact the agent")
	}
}

func TestInvoke(t *testing.T) {
	t.Parallel()
	agent := mocks.NewAgent().WithBean(cacheName, cacheBean())
	conn := connect(t, agent)

	err := conn.Invoke(context.Background(), objectName(t), "evict",
		[]any{"user:1", int64(60)}, []string{"java.lang.String", "long"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if err := conn.Invoke(context.Background(), objectName(t), "clear", []any{}, []string{}); err != nil {
		t.Fatalf("Invoke(clear) error = %v", err)
	}

	execs := agent.Execs()
	if len(execs) != 2 {
		t.Fatalf("execs = %+v", execs)
	}
	if execs[0].Operation != "evict(java.lang.String,long)" {
		t.Errorf("operation = %q", execs[0].Operation)
	}
	if !reflect.DeepEqual(execs[0].Arguments, []any{"user:1", float64(60)}) {
		t.Errorf("arguments = %v", execs[0].Arguments)
	}
	if execs[1].Operation != "clear()" {
		t.Errorf("operation = %q", execs[1].Operation)
	}
}

func TestInvoke_NonFinite(t *testing.T) {
	t.Parallel()
	agent := mocks.NewAgent().WithBean(cacheName, cacheBean())
	conn := connect(t, agent)

	err := conn.Invoke(context.Background(), objectName(t), "scale",
		[]any{float32(math.Inf(1))}, []string{"float"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	execs := agent.Execs()
	if len(execs) != 1 || !reflect.DeepEqual(execs[0].Arguments, []any{"Infinity"}) {
		t.Errorf("execs = %+v", execs)
	}
}

func TestInvoke_RemoteError(t *testing.T) {
	t.Parallel()
	agent := mocks.NewAgent().WithBean(cacheName, cacheBean()).WithExecError("clear", "cache locked")
	conn := connect(t, agent)

	err := conn.Invoke(context.Background(), objectName(t), "clear", nil, nil)
	if !errors.IsKind(err, errors.KindRemote) {
		t.Fatalf("Invoke() error = %v, want remote error", err)
	}
	if !strings.Contains(err.Error(), "cache locked") {
		t.Errorf("error %q should carry the agent message", err)
	}
}

func TestConnection_Closed(t *testing.T) {
	t.Parallel()
	conn := connect(t, mocks.NewAgent().WithBean(cacheName, cacheBean()))
	_ = conn.Close()
	if _, err := conn.Introspect(context.Background(), objectName(t)); err == nil {
		t.Error("Introspect() after Close should fail")
	}
}
