package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"
)

// Format selects how a parsed document is printed.
type Format string

const (
	FormatTree Format = "tree"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat returns the format named by s, case insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTree, FormatJSON, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want tree, json or html)", s)
}

type (
	// ParserConfig holds options for the tree builder
	ParserConfig struct {
		// StyleContainers lists tags whose text is parsed as a style sheet
		StyleContainers []string `yaml:"style_containers"`

		// TraceLayout logs every closed element at debug level
		TraceLayout bool `yaml:"trace_layout"`
	}

	// OutputConfig holds options for printing results
	OutputConfig struct {
		// Format is one of tree, json or html
		Format Format `yaml:"format"`

		// InlineStyles writes computed styles into style attributes when
		// rendering html
		InlineStyles bool `yaml:"inline_styles"`

		// Indent is the indentation unit for tree and json output
		Indent string `yaml:"indent"`
	}

	// Config holds configuration options for parsing and output
	Config struct {
		Version int           `yaml:"version"`
		Parser  ParserConfig  `yaml:"parser"`
		Output  OutputConfig  `yaml:"output"`
		Logging LoggingConfig `yaml:"logging"`
	}
)

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Version: 1,
		Parser: ParserConfig{
			StyleContainers: []string{"style"},
		},
		Output: OutputConfig{
			Format: FormatTree,
			Indent: "  ",
		},
		Logging: LoggingConfig{
			Level: "normal",
		},
	}
}

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// Only fields we defined are accepted so yaml.Unmarshal cannot be used
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration file at path and superimposes its values on
// top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if len(path) == 0 {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, cfg)
}

// Parse decodes data over cfg and validates the result.
func Parse(data []byte, cfg *Config) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, cfg.Validate()
	}
	cfg, err := unmarshalConfig(data, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var err error
	if c.Version != 1 {
		err = multierr.Append(err, fmt.Errorf("unsupported configuration version %d", c.Version))
	}
	if len(c.Parser.StyleContainers) == 0 {
		err = multierr.Append(err, fmt.Errorf("parser.style_containers must not be empty"))
	}
	for _, tag := range c.Parser.StyleContainers {
		if !isTagName(tag) {
			err = multierr.Append(err, fmt.Errorf("parser.style_containers: %q is not a tag name", tag))
		}
	}
	if _, ferr := ParseFormat(string(c.Output.Format)); ferr != nil {
		err = multierr.Append(err, fmt.Errorf("output.format: %w", ferr))
	}
	if strings.Trim(c.Output.Indent, " \t") != "" {
		err = multierr.Append(err, fmt.Errorf("output.indent must contain only spaces and tabs"))
	}
	switch c.Logging.Level {
	case "none", "normal", "debug":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.level: unknown level %q (want none, normal or debug)", c.Logging.Level))
	}
	return err
}

// Tag names are limited to ASCII letters by the tokenizer.
func isTagName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}

// Dump returns the configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
