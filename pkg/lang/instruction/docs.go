package instruction

import "strings"

var grammar = []string{
	"Statements, one per line:",
	"",
	"  <REG> = <expr>                 assign a register",
	"  <expr>                         evaluate and print an expression",
	"  DELAY <ms>                     wait <ms> milliseconds",
	"",
	"Blocks:",
	"",
	"  LOOP <n> {                     repeat the body n times",
	"    ...",
	"  }",
	"",
	"  <NAME> <REG>[, <REG>]* {       define a function with register parameters",
	"    ...",
	"  }",
	"",
	"  CALL <NAME> <arg>[, <arg>]*    inline a function, arguments are registers",
	"                                 or literals",
	"",
	"Keywords are case insensitive. A function body may hold one LOOP; loops",
	"may call functions. Functions can be called before their definition.",
	"Assignments inside a call are local, except to registers that already",
	"exist globally. Text after // is a comment.",
}

// Documentation describes the statement grammar, left padded by leftpad
// spaces
func Documentation(leftpad int) string {
	pad := strings.Repeat(" ", leftpad)

	var builder strings.Builder
	for _, line := range grammar {
		if line != "" {
			builder.WriteString(pad)
			builder.WriteString(line)
		}
		builder.WriteByte('\n')
	}

	return builder.String()
}

// Like Documentation(), but with zero leftpad
func DocString() string {
	return Documentation(0)
}
