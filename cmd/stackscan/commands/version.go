package commands

import (
	"fmt"
	"io"
	"runtime"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/pkg/version"
)

var versionTemplate = `Version:      {{.Version}}
Commit:       {{.Commit}}
Go version:   {{.GoVersion}}
Built:        {{.BuildDate}}
OS/Arch:      {{.Os}}/{{.Arch}}
`

func newVersionCommand(cliExecutable string) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: "core",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if short {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", cliExecutable, version.Version)
				return err
			}
			return printVersion(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")

	return cmd
}

func printVersion(wr io.Writer) error {
	tmpl, err := template.New("").Parse(versionTemplate)
	if err != nil {
		return err
	}

	info := version.Get()
	v := struct {
		Version   string
		Commit    string
		GoVersion string
		BuildDate string
		Os        string
		Arch      string
	}{
		Version:   info.Version,
		Commit:    info.Commit,
		GoVersion: runtime.Version(),
		BuildDate: info.BuildDate,
		Os:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	return tmpl.Execute(wr, v)
}
