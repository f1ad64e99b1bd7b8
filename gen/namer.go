// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package gen

import (
	"strings"
	"unicode"
)

// exportName converts a snake_case shader identifier into an exported Go
// name: "koch_curve" becomes "KochCurve". Shader type names that are
// already PascalCase pass through unchanged.
func exportName(s string) string {
	var sb strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			upper = true
		case upper:
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		return "X" + name
	}
	return name
}

// unexportName converts a shader identifier into an unexported Go name for
// file-scoped variables: "koch_curve" becomes "kochCurve".
func unexportName(s string) string {
	name := exportName(s)
	return strings.ToLower(name[:1]) + name[1:]
}
