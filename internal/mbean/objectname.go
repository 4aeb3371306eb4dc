package mbean

import (
	"fmt"
	"strings"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
)

// Property is one key=value pair of an object name.
type Property struct {
	Key   string
	Value string
}

// ObjectName identifies a single managed resource: domain:key=value[,key=value...].
// Property order is kept as written.
type ObjectName struct {
	Domain     string
	Properties []Property
}

// ParseObjectName parses a non-pattern object name.
func ParseObjectName(s string) (ObjectName, error) {
	domain, rest, ok := strings.Cut(s, ":")
	if !ok {
		return ObjectName{}, errors.Configf("object name %q: missing ':' between domain and key properties", s)
	}
	if strings.ContainsAny(domain, "*?") {
		return ObjectName{}, errors.Configf("object name %q: domain patterns are not supported", s)
	}
	if rest == "" {
		return ObjectName{}, errors.Configf("object name %q: at least one key property is required", s)
	}

	parts, err := splitProperties(rest)
	if err != nil {
		return ObjectName{}, errors.Configf("object name %q: %v", s, err)
	}

	name := ObjectName{Domain: domain}
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		if part == "*" {
			return ObjectName{}, errors.Configf("object name %q: property patterns are not supported", s)
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return ObjectName{}, errors.Configf("object name %q: malformed key property %q", s, part)
		}
		if value == "" {
			return ObjectName{}, errors.Configf("object name %q: empty value for key %q", s, key)
		}
		if seen[key] {
			return ObjectName{}, errors.Configf("object name %q: duplicate key %q", s, key)
		}
		seen[key] = true
		name.Properties = append(name.Properties, Property{Key: key, Value: value})
	}
	return name, nil
}

// splitProperties splits on commas that are not inside a quoted value.
func splitProperties(s string) ([]string, error) {
	var parts []string
	var current strings.Builder
	inQuotes := false
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inQuotes && r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quoted value")
	}
	parts = append(parts, current.String())
	return parts, nil
}

// KeyProperties returns the key=value list as written.
func (n ObjectName) KeyProperties() string {
	parts := make([]string, len(n.Properties))
	for i, p := range n.Properties {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, ",")
}

func (n ObjectName) String() string {
	return n.Domain + ":" + n.KeyProperties()
}

// IsZero reports whether n is the zero ObjectName.
func (n ObjectName) IsZero() bool {
	return n.Domain == "" && len(n.Properties) == 0
}
