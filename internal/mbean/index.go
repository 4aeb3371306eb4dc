package mbean

import "sort"

// Index is a read-only lookup view over a Schema.
type Index struct {
	attributes map[string]AttributeDescriptor
	operations map[string][]OperationDescriptor
}

// BuildIndex indexes attributes by name (last one wins on duplicates) and
// groups operations by name, keeping the schema's overload order.
func BuildIndex(schema *Schema) *Index {
	idx := &Index{
		attributes: make(map[string]AttributeDescriptor),
		operations: make(map[string][]OperationDescriptor),
	}
	if schema == nil {
		return idx
	}
	for _, a := range schema.Attributes {
		idx.attributes[a.Name] = a
	}
	for _, op := range schema.Operations {
		idx.operations[op.Name] = append(idx.operations[op.Name], op)
	}
	return idx
}

// Attribute retrieves an attribute descriptor by name.
func (i *Index) Attribute(name string) (AttributeDescriptor, bool) {
	a, ok := i.attributes[name]
	return a, ok
}

// Overloads returns the overloads of an operation in schema order.
// The returned slice must not be modified.
func (i *Index) Overloads(name string) []OperationDescriptor {
	return i.operations[name]
}

// AttributeNames returns all attribute names sorted.
func (i *Index) AttributeNames() []string {
	names := make([]string, 0, len(i.attributes))
	for name := range i.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OperationNames returns all operation names sorted.
func (i *Index) OperationNames() []string {
	names := make([]string, 0, len(i.operations))
	for name := range i.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
