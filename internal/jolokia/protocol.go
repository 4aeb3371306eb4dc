package jolokia

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/AndreyAkinshin/mbexec/internal/mbean"
)

// Request types understood by the agent.
const (
	typeVersion = "version"
	typeList    = "list"
	typeWrite   = "write"
	typeExec    = "exec"
)

// request is one agent request. Fields irrelevant to Type are omitted.
type request struct {
	Type      string `json:"type"`
	MBean     string `json:"mbean,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Value     any    `json:"value,omitempty"`
	Operation string `json:"operation,omitempty"`
	Arguments []any  `json:"arguments,omitempty"`
	Path      string `json:"path,omitempty"`
}

func (r request) describe() string {
	switch r.Type {
	case typeWrite:
		return fmt.Sprintf("write %s", r.Attribute)
	case typeExec:
		return fmt.Sprintf("exec %s", r.Operation)
	case typeList:
		return fmt.Sprintf("list %s", r.Path)
	default:
		return r.Type
	}
}

// response is one agent response.
type response struct {
	Status    int             `json:"status"`
	Value     json.RawMessage `json:"value,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorType string          `json:"error_type,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ResponseError is a non-200 status reported by the agent.
type ResponseError struct {
	Status    int
	ErrorType string
	Message   string
}

func (e *ResponseError) Error() string {
	if e.ErrorType == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.ErrorType, e.Message)
}

func (r response) err() error {
	if r.Status == 200 {
		return nil
	}
	return &ResponseError{Status: r.Status, ErrorType: r.ErrorType, Message: r.Error}
}

// wireValue returns v as it is sent to the agent. JSON has no NaN or
// infinities, so those go as the strings the agent converts back.
func wireValue(v any) any {
	var f float64
	switch x := v.(type) {
	case float32:
		f = float64(x)
	case float64:
		f = x
	default:
		return v
	}
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return v
}

func wireValues(values []any) []any {
	if values == nil {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = wireValue(v)
	}
	return out
}

// versionInfo is the value of a version response.
type versionInfo struct {
	Agent    string `json:"agent"`
	Protocol string `json:"protocol"`
}

// mbeanInfo is the value of a list response for a single MBean.
type mbeanInfo struct {
	Class string                     `json:"class"`
	Desc  string                     `json:"desc"`
	Attr  map[string]attrInfo        `json:"attr"`
	Op    map[string]json.RawMessage `json:"op"`
}

type attrInfo struct {
	Type string `json:"type"`
	Desc string `json:"desc"`
	RW   bool   `json:"rw"`
}

type opInfo struct {
	Args []argInfo `json:"args"`
	Ret  string    `json:"ret"`
	Desc string    `json:"desc"`
}

type argInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Desc string `json:"desc"`
}

// escapePath escapes one list path segment: "!" becomes "!!", "/" becomes
// "!/" and '"' becomes '!"'.
func escapePath(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '!', '/', '"':
			b.WriteByte('!')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// listPath builds the list path selecting exactly one MBean.
func listPath(object mbean.ObjectName) string {
	return escapePath(object.Domain) + "/" + escapePath(object.KeyProperties())
}

// execOperation renders name(type1,type2) so the agent dispatches to the
// overload with that signature.
func execOperation(name string, types []string) string {
	return name + "(" + strings.Join(types, ",") + ")"
}

// toSchema converts a list response value into a Schema. Attributes and
// operation names are sorted; overload order within a name is the agent's.
func toSchema(info mbeanInfo) (*mbean.Schema, error) {
	schema := &mbean.Schema{
		ClassName:   info.Class,
		Description: info.Desc,
	}

	attrNames := make([]string, 0, len(info.Attr))
	for name := range info.Attr {
		attrNames = append(attrNames, name)
	}
	sort.Strings(attrNames)
	for _, name := range attrNames {
		a := info.Attr[name]
		schema.Attributes = append(schema.Attributes, mbean.AttributeDescriptor{
			Name:        name,
			Type:        a.Type,
			Readable:    true,
			Writable:    a.RW,
			Description: a.Desc,
		})
	}

	opNames := make([]string, 0, len(info.Op))
	for name := range info.Op {
		opNames = append(opNames, name)
	}
	sort.Strings(opNames)
	for _, name := range opNames {
		overloads, err := decodeOverloads(info.Op[name])
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", name, err)
		}
		for _, o := range overloads {
			desc := mbean.OperationDescriptor{
				Name:        name,
				ReturnType:  o.Ret,
				Description: o.Desc,
				Parameters:  make([]mbean.ParameterDescriptor, len(o.Args)),
			}
			for i, a := range o.Args {
				desc.Parameters[i] = mbean.ParameterDescriptor{Name: a.Name, Type: a.Type}
			}
			schema.Operations = append(schema.Operations, desc)
		}
	}
	return schema, nil
}

// decodeOverloads accepts a single operation object or an array of overloads.
func decodeOverloads(raw json.RawMessage) ([]opInfo, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var overloads []opInfo
		if err := json.Unmarshal(raw, &overloads); err != nil {
			return nil, err
		}
		return overloads, nil
	}
	var single opInfo
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []opInfo{single}, nil
}
