// cmd/stackscan/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vulntor/stackscan/cmd/stackscan/commands"
	"github.com/vulntor/stackscan/cmd/stackscan/internal/format"
)

func main() {
	cmd := commands.NewCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !format.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(commands.ExitCode(err))
	}
}
