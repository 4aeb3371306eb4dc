package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/schema"
)

// ConfigEnv names the configuration file when --config is not given.
const ConfigEnv = "MBEXEC_CONFIG"

// FileNames are the configuration file names searched for, in order.
var FileNames = []string{"mbexec.json", "mbexec.yaml", "mbexec.yml"}

// Find locates the configuration file: explicit path first, then
// MBEXEC_CONFIG, then the first of FileNames present in dir.
func Find(explicit, dir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(ConfigEnv); env != "" {
		return env, nil
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Configf("no configuration file found in %s (looked for %s; use --config or %s)",
		dir, strings.Join(FileNames, ", "), ConfigEnv)
}

// ReadDocument reads a configuration file as JSON. YAML files (.yaml, .yml)
// are converted to the equivalent JSON document.
func ReadDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigWrap(err, "failed to read config file")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, errors.ConfigWrap(err, "failed to parse config file")
		}
		return converted, nil
	default:
		return data, nil
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// LoadWithDefaults reads a config file and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadAndValidate reads a config file, checks it against the embedded schema,
// applies defaults, validates, and returns warnings.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, nil, err
	}

	if err := schema.ValidateConfig(data); err != nil {
		return nil, nil, errors.Validation(err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, nil, err
	}
	warnings := detectUnknownFields(data)

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, warnings, err
	}

	return cfg, warnings, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.ConfigWrap(err, "failed to parse config file")
	}
	return &cfg, nil
}

// yamlToJSON converts a YAML document into JSON. Numeric scalars keep their
// literal text, so 1.10 stays 1.10 rather than becoming 1.1.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return []byte("null"), nil
	}
	v, err := nodeToJSON(doc.Content[0])
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// nodeToJSON turns a YAML node into a value that marshals as the equivalent
// JSON. Integers and floats become json.Number when their text is a valid
// JSON number and strings otherwise (0x1F, .inf).
func nodeToJSON(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeToJSON(n.Content[0])
	case yaml.AliasNode:
		return nodeToJSON(n.Alias)
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := nodeToJSON(c)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		if err := mergeMapping(m, n); err != nil {
			return nil, err
		}
		return m, nil
	case yaml.ScalarNode:
		return scalarToJSON(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

// mergeMapping copies n's entries into m. Keys set explicitly win over keys
// pulled in through << merges.
func mergeMapping(m map[string]any, n *yaml.Node) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if key.Tag == "!!merge" {
			merges = append(merges, value)
			continue
		}
		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: mapping key is not a scalar", key.Line)
		}
		v, err := nodeToJSON(value)
		if err != nil {
			return err
		}
		m[key.Value] = v
	}
	for _, merge := range merges {
		if merge.Kind == yaml.AliasNode {
			merge = merge.Alias
		}
		sources := []*yaml.Node{merge}
		if merge.Kind == yaml.SequenceNode {
			sources = merge.Content
		}
		for _, src := range sources {
			if src.Kind == yaml.AliasNode {
				src = src.Alias
			}
			if src.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: merge value is not a mapping", src.Line)
			}
			merged := make(map[string]any)
			if err := mergeMapping(merged, src); err != nil {
				return err
			}
			for k, v := range merged {
				if _, ok := m[k]; !ok {
					m[k] = v
				}
			}
		}
	}
	return nil
}

func scalarToJSON(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int", "!!float":
		if json.Valid([]byte(n.Value)) {
			return json.Number(n.Value), nil
		}
		return n.Value, nil
	default:
		return n.Value, nil
	}
}

func serverAddress(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
