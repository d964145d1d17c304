package lang

import (
	"fmt"
	"strings"
)

// ErrorsDocumentation lists every error kind, left padded by leftpad spaces
func ErrorsDocumentation(leftpad int) string {
	pad := strings.Repeat(" ", leftpad)

	var builder strings.Builder
	builder.WriteString(pad)
	builder.WriteString("Error kinds:\n\n")

	for _, k := range kinds {
		scope := "instruction error, execution continues"
		if IsStructural(k.err) {
			scope = "expansion error, nothing is executed"
		}
		builder.WriteString(fmt.Sprintf("%s - %-20s %v (%s)\n", pad, k.name, k.err, scope))
	}

	return builder.String()
}

// Like ErrorsDocumentation(), but with zero leftpad
func ErrorsDocString() string {
	return ErrorsDocumentation(0)
}
