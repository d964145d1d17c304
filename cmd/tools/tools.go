package tools

import (
	"github.com/spf13/cobra"
)

// ToolsCmd groups the binlang miscellaneous tools
var ToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Binlang miscellaneous tools",
}
