package target

import (
	"reflect"
	"testing"

	"github.com/AndreyAkinshin/mbexec/internal/config"
	"github.com/AndreyAkinshin/mbexec/internal/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		ObjectName: "com.example:type=Cache",
		Servers: []config.ServerConfig{
			{Name: "web-2", Host: "10.0.0.2", Port: 8778},
			{Name: "web-1", Host: "10.0.0.1", Port: 8778},
			{Name: "db", Host: "db.internal", Port: 9999,
				Credentials: &config.CredentialsConfig{User: "admin", Password: "secret"}},
		},
	}
}

func names(targets []Target) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Name
	}
	return out
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
	if got := names(r.All()); !reflect.DeepEqual(got, []string{"web-2", "web-1", "db"}) {
		t.Errorf("All() = %v, want configuration order", got)
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"db", "web-1", "web-2"}) {
		t.Errorf("Names() = %v", got)
	}

	db, ok := r.Get("db")
	if !ok {
		t.Fatal("Get(db) = not found")
	}
	if !db.HasCredentials() || db.Credentials.Password != "secret" {
		t.Errorf("db credentials = %+v", db.Credentials)
	}
	if _, ok := r.Get("nonexistent"); ok {
		t.Error("Get(nonexistent) = found, want not found")
	}
}

func TestNewRegistry_PasswordEnv(t *testing.T) {
	t.Setenv("MBEXEC_TEST_PASSWORD", "from-env")
	cfg := testConfig()
	cfg.Servers[2].Credentials = &config.CredentialsConfig{User: "admin", PasswordEnv: "MBEXEC_TEST_PASSWORD"}

	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	db, _ := r.Get("db")
	if db.Credentials.Password != "from-env" {
		t.Errorf("Password = %q, want from-env", db.Credentials.Password)
	}
}

func TestNewRegistry_MissingPasswordEnv(t *testing.T) {
	t.Setenv("MBEXEC_TEST_MISSING", "")
	cfg := testConfig()
	cfg.Servers[0].Credentials = &config.CredentialsConfig{User: "admin", PasswordEnv: "MBEXEC_TEST_MISSING"}

	_, err := NewRegistry(cfg)
	if err == nil {
		t.Fatal("NewRegistry() expected error for unset password_env")
	}
	if errors.GetExitCode(err) != errors.ExitConfigError {
		t.Errorf("exit code = %d, want %d", errors.GetExitCode(err), errors.ExitConfigError)
	}
}

func TestNew_DefaultNameAndDuplicates(t *testing.T) {
	t.Parallel()
	r, err := New([]Target{{Host: "h", Port: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Get("h:1"); !ok {
		t.Error("unnamed target should be registered as host:port")
	}

	_, err = New([]Target{{Name: "a", Host: "h1", Port: 1}, {Name: "a", Host: "h2", Port: 1}})
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("duplicate names error = %v, want config error", err)
	}
}

func TestRegistry_Select(t *testing.T) {
	t.Parallel()
	r, err := NewRegistry(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"empty selects all", nil, []string{"web-2", "web-1", "db"}, false},
		{"keeps configuration order", []string{"db", "web-2"}, []string{"web-2", "db"}, false},
		{"duplicates collapse", []string{"db", "db"}, []string{"db"}, false},
		{"unknown name", []string{"db", "nope"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Select(tt.in)
			if tt.wantErr {
				if !errors.IsKind(err, errors.KindConfig) {
					t.Fatalf("Select() error = %v, want config error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if !reflect.DeepEqual(names(got), tt.want) {
				t.Errorf("Select() = %v, want %v", names(got), tt.want)
			}
		})
	}
}

func TestTarget_Formatting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		target  Target
		label   string
		address string
		str     string
	}{
		{Target{Name: "web", Host: "10.0.0.5", Port: 8778}, "10.0.0.5", "10.0.0.5:8778", "web (10.0.0.5:8778)"},
		{Target{Name: "h:1", Host: "h", Port: 1}, "h", "h:1", "h:1"},
		{Target{Host: "::1", Port: 8778}, "::1", "[::1]:8778", "[::1]:8778"},
	}
	for _, tt := range tests {
		if got := tt.target.Label(); got != tt.label {
			t.Errorf("Label() = %q, want %q", got, tt.label)
		}
		if got := tt.target.Address(); got != tt.address {
			t.Errorf("Address() = %q, want %q", got, tt.address)
		}
		if got := tt.target.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
	}
}
