// Package toolset defines the data-driven mapping from language keys to the
// ordered chain of external tools run against files of that language. Adding
// or replacing a tool is a configuration change, not a code change.
package toolset

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Tool roles. Check tools never mutate the file; fix tools may rewrite it and
// are guarded by backup/restore in the engine.
const (
	RoleCheck = "check"
	RoleFix   = "fix"
)

// Output parsing conventions declared per tool.
const (
	FormatJSON  = "json"  // stdout is a machine-readable findings document
	FormatLines = "lines" // each non-empty output line is one finding
)

// FilePlaceholder, when present in a command argument, is replaced with the
// target file path. Commands without it get the path appended as the final
// argument.
const FilePlaceholder = "{file}"

// ErrInvalidToolMap indicates a tool map failed schema validation.
var ErrInvalidToolMap = errors.New("invalid tool map configuration")

// ToolSpec declares one external tool: how to invoke it, what role it plays
// in the chain, and how to interpret its exit status and output. Immutable
// once loaded.
type ToolSpec struct {
	Name           string   `mapstructure:"name" yaml:"name" json:"name"`
	Command        []string `mapstructure:"command" yaml:"command" json:"command"`
	Role           string   `mapstructure:"role" yaml:"role" json:"role"`
	TimeoutSeconds int      `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	// IssueExitCodes lists the non-zero exit codes that mean "issues found"
	// for this tool. Any other non-zero exit is classified as a crash. This
	// is a declared property, never inferred from output.
	IssueExitCodes []int  `mapstructure:"issueExitCodes" yaml:"issueExitCodes" json:"issueExitCodes"`
	OutputFormat   string `mapstructure:"outputFormat" yaml:"outputFormat" json:"outputFormat"`
}

// Timeout returns the tool's declared timeout, or fallback if none is set.
func (t ToolSpec) Timeout(fallback time.Duration) time.Duration {
	if t.TimeoutSeconds > 0 {
		return time.Duration(t.TimeoutSeconds) * time.Second
	}
	return fallback
}

// IsIssueExit reports whether the given non-zero exit code is declared to
// mean "issues found" rather than a tool crash.
func (t ToolSpec) IsIssueExit(code int) bool {
	for _, c := range t.IssueExitCodes {
		if c == code {
			return true
		}
	}
	return false
}

// toolMapSchema is the JSON Schema every loaded tool map must satisfy.
// Mirrors the required-keys check the configuration contract documents:
// each language maps to a non-empty list of {name, command, role} entries.
const toolMapSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "array",
    "minItems": 1,
    "items": {
      "type": "object",
      "required": ["name", "command", "role"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "command": {"type": "array", "minItems": 1, "items": {"type": "string"}},
        "role": {"type": "string", "enum": ["check", "fix"]},
        "timeout": {"type": "integer", "minimum": 0},
        "issueExitCodes": {"type": "array", "items": {"type": "integer"}},
        "outputFormat": {"type": "string", "enum": ["json", "lines"]}
      },
      "additionalProperties": false
    }
  }
}`

// ToolSet is the resolved, validated language -> tool chain table.
type ToolSet struct {
	byLanguage map[string][]ToolSpec
}

// New builds a ToolSet from a language -> tools map, normalizing language
// keys to lowercase and filling unset output formats with the "lines"
// convention.
func New(m map[string][]ToolSpec) *ToolSet {
	byLang := make(map[string][]ToolSpec, len(m))
	for lang, tools := range m {
		key := strings.ToLower(strings.TrimSpace(lang))
		if key == "" || len(tools) == 0 {
			continue
		}
		chain := make([]ToolSpec, len(tools))
		copy(chain, tools)
		for i := range chain {
			if chain[i].OutputFormat == "" {
				chain[i].OutputFormat = FormatLines
			}
		}
		byLang[key] = chain
	}
	return &ToolSet{byLanguage: byLang}
}

// ChainFor returns the ordered tool chain configured for a language key, or
// nil if the language is not covered.
func (ts *ToolSet) ChainFor(language string) []ToolSpec {
	return ts.byLanguage[strings.ToLower(language)]
}

// Languages returns the covered language keys in sorted order.
func (ts *ToolSet) Languages() []string {
	langs := make([]string, 0, len(ts.byLanguage))
	for lang := range ts.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Validate checks a raw tool map (as decoded from JSON/YAML configuration)
// against the embedded schema. Returns ErrInvalidToolMap wrapping the
// collected violations.
func Validate(raw map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(toolMapSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToolMap, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidToolMap, strings.Join(msgs, "; "))
}

// LoadFile reads a standalone YAML tool map (e.g. a repo-local
// .codextools.yaml), validates it, and returns the decoded map.
func LoadFile(path string) (map[string][]ToolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool map %s: %w", path, err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidToolMap, path, err)
	}
	if err := Validate(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var typed map[string][]ToolSpec
	if err := yaml.Unmarshal(data, &typed); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidToolMap, path, err)
	}
	return typed, nil
}

// Defaults returns the built-in tool map used when configuration declares no
// tools of its own. Kept intentionally conservative: well-known linters and
// formatters with their documented exit-code conventions.
func Defaults() map[string][]ToolSpec {
	return map[string][]ToolSpec{
		"python": {
			{
				Name:           "pylint",
				Command:        []string{"pylint", "--output-format=json", "--score=n"},
				Role:           RoleCheck,
				TimeoutSeconds: 30,
				// pylint sets bit flags 1..16 for message categories; 32 is a
				// usage error and stays classified as a crash.
				IssueExitCodes: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31},
				OutputFormat:   FormatJSON,
			},
			{
				Name:           "black",
				Command:        []string{"black", "-q"},
				Role:           RoleFix,
				TimeoutSeconds: 30,
			},
		},
		"javascript": {
			{
				Name:           "eslint",
				Command:        []string{"eslint", "--format=json"},
				Role:           RoleCheck,
				TimeoutSeconds: 30,
				IssueExitCodes: []int{1},
				OutputFormat:   FormatJSON,
			},
			{
				Name:           "prettier",
				Command:        []string{"prettier", "--write"},
				Role:           RoleFix,
				TimeoutSeconds: 30,
			},
		},
		"go": {
			{
				Name:           "govet",
				Command:        []string{"go", "vet", FilePlaceholder},
				Role:           RoleCheck,
				TimeoutSeconds: 60,
			},
			{
				Name:           "gofmt",
				Command:        []string{"gofmt", "-w", FilePlaceholder},
				Role:           RoleFix,
				TimeoutSeconds: 30,
			},
		},
	}
}
