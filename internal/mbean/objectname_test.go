package mbean

import (
	"testing"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
)

func TestParseObjectName_Valid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in         string
		domain     string
		properties []Property
	}{
		{
			in:         "java.lang:type=Memory",
			domain:     "java.lang",
			properties: []Property{{"type", "Memory"}},
		},
		{
			in:         "com.example:type=Cache,name=users",
			domain:     "com.example",
			properties: []Property{{"type", "Cache"}, {"name", "users"}},
		},
		{
			in:         `app:name="a,b",type=Pool`,
			domain:     "app",
			properties: []Property{{"name", `"a,b"`}, {"type", "Pool"}},
		},
		{
			in:         ":type=Default",
			domain:     "",
			properties: []Property{{"type", "Default"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseObjectName(tt.in)
			if err != nil {
				t.Fatalf("ParseObjectName(%q) error = %v", tt.in, err)
			}
			if got.Domain != tt.domain {
				t.Errorf("Domain = %q, want %q", got.Domain, tt.domain)
			}
			if len(got.Properties) != len(tt.properties) {
				t.Fatalf("Properties = %v, want %v", got.Properties, tt.properties)
			}
			for i := range tt.properties {
				if got.Properties[i] != tt.properties[i] {
					t.Errorf("Properties[%d] = %v, want %v", i, got.Properties[i], tt.properties[i])
				}
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestParseObjectName_Invalid(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"java.lang",
		"java.lang:",
		"java.*:type=Memory",
		"java.lang:type=Memory,*",
		"java.lang:type",
		"java.lang:=Memory",
		"java.lang:type=",
		"java.lang:type=A,type=B",
		`java.lang:name="open`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseObjectName(in)
			if err == nil {
				t.Fatalf("ParseObjectName(%q) expected error", in)
			}
			if !errors.IsKind(err, errors.KindConfig) {
				t.Errorf("error kind = %v, want config", errors.KindOf(err))
			}
		})
	}
}

func TestObjectName_IsZero(t *testing.T) {
	t.Parallel()
	if !(ObjectName{}).IsZero() {
		t.Error("zero ObjectName should report IsZero")
	}
	n, err := ParseObjectName("a:b=c")
	if err != nil {
		t.Fatal(err)
	}
	if n.IsZero() {
		t.Error("parsed ObjectName should not report IsZero")
	}
}
