package toolset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesLanguageKeys(t *testing.T) {
	ts := New(map[string][]ToolSpec{
		" Python ": {{Name: "pylint", Command: []string{"pylint"}, Role: RoleCheck}},
		"GO":       {{Name: "gofmt", Command: []string{"gofmt", "-w", FilePlaceholder}, Role: RoleFix}},
	})

	assert.Equal(t, []string{"go", "python"}, ts.Languages())
	require.Len(t, ts.ChainFor("PYTHON"), 1)
	assert.Equal(t, "pylint", ts.ChainFor("python")[0].Name)
	assert.Nil(t, ts.ChainFor("rust"))
}

func TestNewFillsDefaultOutputFormat(t *testing.T) {
	ts := New(map[string][]ToolSpec{
		"go": {{Name: "govet", Command: []string{"go", "vet"}, Role: RoleCheck}},
	})
	assert.Equal(t, FormatLines, ts.ChainFor("go")[0].OutputFormat)
}

func TestToolSpecTimeout(t *testing.T) {
	withTimeout := ToolSpec{TimeoutSeconds: 5}
	assert.Equal(t, 5*time.Second, withTimeout.Timeout(30*time.Second))

	unset := ToolSpec{}
	assert.Equal(t, 30*time.Second, unset.Timeout(30*time.Second))
}

func TestIsIssueExit(t *testing.T) {
	spec := ToolSpec{IssueExitCodes: []int{1, 2}}
	assert.True(t, spec.IsIssueExit(1))
	assert.True(t, spec.IsIssueExit(2))
	assert.False(t, spec.IsIssueExit(3))

	none := ToolSpec{}
	assert.False(t, none.IsIssueExit(1))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		raw     map[string]interface{}
		wantErr bool
	}{
		{
			name: "valid map",
			raw: map[string]interface{}{
				"python": []interface{}{
					map[string]interface{}{
						"name":    "pylint",
						"command": []interface{}{"pylint"},
						"role":    "check",
					},
				},
			},
			wantErr: false,
		},
		{
			name:    "empty map rejected",
			raw:     map[string]interface{}{},
			wantErr: true,
		},
		{
			name: "missing role rejected",
			raw: map[string]interface{}{
				"python": []interface{}{
					map[string]interface{}{
						"name":    "pylint",
						"command": []interface{}{"pylint"},
					},
				},
			},
			wantErr: true,
		},
		{
			name: "invalid role rejected",
			raw: map[string]interface{}{
				"python": []interface{}{
					map[string]interface{}{
						"name":    "pylint",
						"command": []interface{}{"pylint"},
						"role":    "analyze",
					},
				},
			},
			wantErr: true,
		},
		{
			name: "empty command rejected",
			raw: map[string]interface{}{
				"python": []interface{}{
					map[string]interface{}{
						"name":    "pylint",
						"command": []interface{}{},
						"role":    "check",
					},
				},
			},
			wantErr: true,
		},
		{
			name: "unknown key rejected",
			raw: map[string]interface{}{
				"python": []interface{}{
					map[string]interface{}{
						"name":    "pylint",
						"command": []interface{}{"pylint"},
						"role":    "check",
						"shell":   true,
					},
				},
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidToolMap)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "tools.yaml")
		content := `
python:
  - name: pylint
    command: ["pylint", "--output-format=json"]
    role: check
    timeout: 20
    issueExitCodes: [1, 2]
    outputFormat: json
  - name: black
    command: ["black", "-q"]
    role: fix
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		m, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, m["python"], 2)
		assert.Equal(t, "pylint", m["python"][0].Name)
		assert.Equal(t, 20, m["python"][0].TimeoutSeconds)
		assert.Equal(t, []int{1, 2}, m["python"][0].IssueExitCodes)
		assert.Equal(t, RoleFix, m["python"][1].Role)
	})

	t.Run("schema violation", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("python:\n  - name: pylint\n"), 0o644))

		_, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrInvalidToolMap)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unparseable yaml", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":\n\t- {"), 0o644))

		_, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrInvalidToolMap)
	})
}

func TestDefaultsCoverExpectedLanguages(t *testing.T) {
	ts := New(Defaults())
	for _, lang := range []string{"python", "javascript", "go"} {
		chain := ts.ChainFor(lang)
		require.NotEmpty(t, chain, "expected default chain for %s", lang)

		hasCheck := false
		for _, spec := range chain {
			if spec.Role == RoleCheck {
				hasCheck = true
			}
		}
		assert.True(t, hasCheck, "default chain for %s has no check tool", lang)
	}
}
