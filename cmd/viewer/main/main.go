package main

import (
	"fmt"
	"os"

	"github.com/WASasquatch/ComfyUI-Viewer/cmd/viewer"
)

func main() {
	rootCmd := viewer.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viewer.ErrorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
