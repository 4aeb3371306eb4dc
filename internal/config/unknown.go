package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// detectUnknownFields compares the raw JSON document with the known struct
// fields and returns one warning per unknown key.
func detectUnknownFields(data []byte) []string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// This should never happen since the data was already parsed successfully.
		return []string{"internal: failed to re-parse config for unknown field detection"}
	}

	var warnings []string
	knownTopLevel := getJSONFields(reflect.TypeOf(Config{}))
	for _, key := range sortedKeys(raw) {
		if key == "$schema" {
			continue // $schema is explicitly allowed and ignored
		}
		if !knownTopLevel[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}

	sections := []struct {
		key string
		typ reflect.Type
	}{
		{"connector", reflect.TypeOf(ConnectorConfig{})},
		{"tracing", reflect.TypeOf(TracingConfig{})},
		{"journal", reflect.TypeOf(JournalConfig{})},
	}
	for _, s := range sections {
		if section, ok := raw[s.key]; ok {
			warnings = append(warnings, checkObject(section, s.typ, s.key)...)
		}
	}

	lists := []struct {
		key string
		typ reflect.Type
	}{
		{"servers", reflect.TypeOf(ServerConfig{})},
		{"attributes", reflect.TypeOf(AttributeConfig{})},
		{"operations", reflect.TypeOf(OperationConfig{})},
	}
	for _, l := range lists {
		listRaw, ok := raw[l.key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(listRaw, &items); err != nil {
			continue
		}
		for i, item := range items {
			where := fmt.Sprintf("%s[%d]", l.key, i)
			warnings = append(warnings, checkObject(item, l.typ, where)...)
			if l.key == "servers" {
				warnings = append(warnings, checkCredentials(item, where)...)
			}
		}
	}

	return warnings
}

func checkCredentials(server json.RawMessage, where string) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(server, &fields); err != nil {
		return nil
	}
	creds, ok := fields["credentials"]
	if !ok {
		return nil
	}
	return checkObject(creds, reflect.TypeOf(CredentialsConfig{}), where+".credentials")
}

func checkObject(data json.RawMessage, t reflect.Type, where string) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	known := getJSONFields(t)
	var warnings []string
	for _, key := range sortedKeys(fields) {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q in %s (ignored)", key, where))
		}
	}
	return warnings
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// getJSONFields returns a map of known JSON field names for a struct type.
func getJSONFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		// Extract field name from tag (before comma)
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}
