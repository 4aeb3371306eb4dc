package mbean

import (
	"reflect"
	"testing"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
)

func op(name string, types ...string) OperationDescriptor {
	params := make([]ParameterDescriptor, len(types))
	for i, typ := range types {
		params[i] = ParameterDescriptor{Name: "", Type: typ}
	}
	return OperationDescriptor{Name: name, Parameters: params, ReturnType: "void"}
}

func TestBuildIndex(t *testing.T) {
	t.Parallel()
	schema := &Schema{
		Attributes: []AttributeDescriptor{
			{Name: "MaxSize", Type: "int", Writable: true},
			{Name: "Uptime", Type: "long"},
			{Name: "MaxSize", Type: "long", Writable: false},
		},
		Operations: []OperationDescriptor{
			op("reset"),
			op("foo", "int"),
			op("foo", "int", "int"),
			op("foo", "int", "int", "int", "int"),
		},
	}

	idx := BuildIndex(schema)

	a, ok := idx.Attribute("MaxSize")
	if !ok {
		t.Fatal("MaxSize not indexed")
	}
	if a.Type != "long" || a.Writable {
		t.Errorf("duplicate attribute should be last-seen wins, got %+v", a)
	}
	if _, ok := idx.Attribute("missing"); ok {
		t.Error("missing attribute reported present")
	}

	overloads := idx.Overloads("foo")
	arities := make([]int, len(overloads))
	for i, o := range overloads {
		arities[i] = len(o.Parameters)
	}
	if !reflect.DeepEqual(arities, []int{1, 2, 4}) {
		t.Errorf("foo overload arities = %v, want [1 2 4]", arities)
	}
	if len(idx.Overloads("missing")) != 0 {
		t.Error("missing operation should have no overloads")
	}

	if got := idx.AttributeNames(); !reflect.DeepEqual(got, []string{"MaxSize", "Uptime"}) {
		t.Errorf("AttributeNames() = %v", got)
	}
	if got := idx.OperationNames(); !reflect.DeepEqual(got, []string{"foo", "reset"}) {
		t.Errorf("OperationNames() = %v", got)
	}
}

func TestBuildIndex_Nil(t *testing.T) {
	t.Parallel()
	idx := BuildIndex(nil)
	if _, ok := idx.Attribute("x"); ok {
		t.Error("nil schema should index nothing")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	candidates := []OperationDescriptor{
		op("foo", "int"),
		op("foo", "int", "int"),
		op("foo", "int", "int", "int", "int"),
	}

	tests := []struct {
		name          string
		argCount      int
		wantArity     int
		wantShortfall int
		wantErr       bool
	}{
		{"exact 1", 1, 1, 0, false},
		{"exact 2", 2, 2, 0, false},
		{"three supplied picks arity 2", 3, 2, 1, false},
		{"exact 4", 4, 4, 0, false},
		{"six supplied picks arity 4", 6, 4, 2, false},
		{"zero supplied has no overload", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, shortfall, err := Resolve("foo", tt.argCount, candidates)
			if tt.wantErr {
				if !errors.IsKind(err, errors.KindNoEligibleOverload) {
					t.Fatalf("Resolve() error = %v, want no eligible overload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if len(got.Parameters) != tt.wantArity {
				t.Errorf("arity = %d, want %d", len(got.Parameters), tt.wantArity)
			}
			if shortfall != tt.wantShortfall {
				t.Errorf("shortfall = %d, want %d", shortfall, tt.wantShortfall)
			}
		})
	}
}

func TestResolve_TieFirstWins(t *testing.T) {
	t.Parallel()
	candidates := []OperationDescriptor{
		op("set", "int"),
		op("set", "java.lang.String"),
	}
	got, shortfall, err := Resolve("set", 1, candidates)
	if err != nil {
		t.Fatal(err)
	}
	if got.Parameters[0].Type != "int" || shortfall != 0 {
		t.Errorf("Resolve() = %s (shortfall %d), want set(int)", got.Signature(), shortfall)
	}
}

func TestResolve_NoCandidates(t *testing.T) {
	t.Parallel()
	_, _, err := Resolve("none", 3, nil)
	if !errors.IsKind(err, errors.KindNoEligibleOverload) {
		t.Errorf("Resolve() error = %v, want no eligible overload", err)
	}
}

func TestOperationDescriptor_Signature(t *testing.T) {
	t.Parallel()
	if got := op("put", "java.lang.String", "long").Signature(); got != "put(java.lang.String,long)" {
		t.Errorf("Signature() = %q", got)
	}
	if got := op("reset").Signature(); got != "reset()" {
		t.Errorf("Signature() = %q", got)
	}
}
