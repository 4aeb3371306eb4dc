// Package mbean resolves symbolic attribute and operation requests against an
// MBean's introspected schema and applies them through a remote connection.
package mbean

import "strings"

// AttributeDescriptor describes one attribute exposed by an MBean.
type AttributeDescriptor struct {
	Name        string
	Type        string
	Readable    bool
	Writable    bool
	Description string
}

// ParameterDescriptor describes one operation parameter.
type ParameterDescriptor struct {
	Name string
	Type string
}

// OperationDescriptor describes one operation overload.
type OperationDescriptor struct {
	Name        string
	Parameters  []ParameterDescriptor
	ReturnType  string
	Description string
}

// ParameterTypes returns the declared parameter type names in order.
func (o OperationDescriptor) ParameterTypes() []string {
	types := make([]string, len(o.Parameters))
	for i, p := range o.Parameters {
		types[i] = p.Type
	}
	return types
}

// Signature renders the overload as name(type1,type2).
func (o OperationDescriptor) Signature() string {
	return o.Name + "(" + strings.Join(o.ParameterTypes(), ",") + ")"
}

// Schema is the introspected metadata of one MBean.
// Operations sharing a name are overloads; their relative order is significant.
type Schema struct {
	ClassName   string
	Description string
	Attributes  []AttributeDescriptor
	Operations  []OperationDescriptor
}

// AttributeRequest asks for one attribute to be set from a string literal.
type AttributeRequest struct {
	Name  string
	Value string
}

// OperationRequest asks for one operation to be invoked with string literal arguments.
type OperationRequest struct {
	Name       string
	Parameters []string
}

// AttributeValue is a validated, coerced attribute assignment ready to commit.
type AttributeValue struct {
	Name  string
	Type  string
	Value any
}
