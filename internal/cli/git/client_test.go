package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePorcelain(t *testing.T) {
	out := ` M internal/app.py
M  cmd/main.go
A  newfile.js
?? scratch.txt
!! ignored.log
R  old_name.py -> pkg/new_name.py
 D removed.py
`
	files := parsePorcelain(out)
	assert.Equal(t, []string{
		"internal/app.py",
		"cmd/main.go",
		"newfile.js",
		"pkg/new_name.py",
		"removed.py",
	}, files)
}

func TestParsePorcelainEmpty(t *testing.T) {
	assert.Empty(t, parsePorcelain(""))
	assert.Empty(t, parsePorcelain("\n\n"))
}

func TestParsePorcelainQuotedPath(t *testing.T) {
	files := parsePorcelain(` M "path with spaces.py"` + "\n")
	assert.Equal(t, []string{"path with spaces.py"}, files)
}
