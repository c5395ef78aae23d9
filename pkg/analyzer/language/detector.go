// Package language resolves files to the language keys used by the tool map.
package language

import (
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// aliases folds enry's language names into the coarser keys the tool map
// uses: dialects share the toolchain of their base language.
var aliases = map[string]string{
	"typescript":       "javascript",
	"tsx":              "javascript",
	"jsx":              "javascript",
	"c++":              "cpp",
	"c":                "cpp",
	"jupyter notebook": "python",
}

// Detector identifies languages by filename and content via enry's
// linguist-derived heuristics.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the lowercase tool-map key for a file, or "" when the
// language is unknown or the content is binary.
func (d *Detector) Detect(path string, sample []byte) string {
	if enry.IsBinary(sample) {
		return ""
	}
	lang := enry.GetLanguage(path, sample)
	if lang == "" {
		return ""
	}
	key := strings.ToLower(lang)
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}
