package catalog

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/cmd/stackscan/internal/format"
	"github.com/vulntor/stackscan/pkg/catalog"
	"github.com/vulntor/stackscan/pkg/stringutil"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

const (
	validateOperation = "validate"
	problemWidth      = 80
)

// ErrCatalogInvalid is returned by --strict validation when the catalog has
// rejected entries or patterns that do not compile.
var ErrCatalogInvalid = errors.New("catalog has invalid entries")

// Issue is one problem found while validating a catalog file.
type Issue struct {
	Technology string `json:"technology"`
	Kind       string `json:"kind"`
	Field      string `json:"field,omitempty"`
	Problem    string `json:"problem"`
}

func newValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a catalog file for errors",
		Long: `Parse a catalog file and compile every pattern, reporting entries that
cannot be decoded and patterns that would be skipped at load time.

Problems are reported but do not fail the command unless --strict is set,
mirroring how detection tolerates a partially broken catalog.`,
		Example: `  # Validate before deploying
  stackscan catalog validate ./technologies.json

  # Fail CI on any broken pattern
  stackscan catalog validate ./technologies.yaml --strict -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			path := args[0]

			doc, err := catalog.LoadFile(path)
			if err != nil {
				loadErr := &catalog.LoadError{Source: catalog.SourceFile, Path: path, Err: err}
				return formatter.PrintTotalFailureSummary(validateOperation, loadErr, catalog.ErrorCode(loadErr))
			}

			issues, compiled := validateDocument(doc)

			if formatter.IsJSON() {
				if err := formatter.PrintJSON(map[string]any{
					"path":         path,
					"version":      doc.Version,
					"technologies": compiled.Len(),
					"issues":       issues,
					"valid":        len(issues) == 0,
				}); err != nil {
					return err
				}
			} else if len(issues) > 0 {
				rows := make([][]string, 0, len(issues))
				for _, is := range issues {
					field := is.Field
					if field == "" {
						field = "-"
					}
					rows = append(rows, []string{is.Technology, is.Kind, field, stringutil.Ellipsis(is.Problem, problemWidth)})
				}
				if err := formatter.PrintTable([]string{"TECHNOLOGY", "KIND", "FIELD", "PROBLEM"}, rows); err != nil {
					return err
				}
			}

			if strict && len(issues) > 0 {
				err := catalog.WithErrorCode(
					fmt.Errorf("%w: %s", ErrCatalogInvalid, plural(len(issues), "issue", "issues")),
					"CATALOG_LOAD_FAILED",
				)
				return formatter.PrintTotalFailureSummary(validateOperation, err, catalog.ErrorCode(err))
			}
			if formatter.IsJSON() {
				return nil
			}

			detail := "(" + plural(compiled.Len(), "technology", "technologies")
			if len(issues) > 0 {
				detail += ", " + plural(len(issues), "issue", "issues")
			}
			detail += ")"
			return formatter.PrintSuccessSummary(validateOperation, path, detail)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any entry or pattern is invalid")
	addOutputFlags(cmd)

	return cmd
}

// validateDocument compiles doc and lists rejected entries followed by every
// pattern that fails to compile.
func validateDocument(doc *catalog.Document) ([]Issue, *techdetect.CompiledCatalog) {
	issues := make([]Issue, 0, len(doc.Rejected))
	for _, r := range doc.Rejected {
		issues = append(issues, Issue{Technology: r.Name, Kind: "entry", Problem: r.Err.Error()})
	}

	compiled, _ := techdetect.Compile(doc.Technologies, techdetect.WithPatternErrorHandler(func(pe techdetect.PatternError) {
		issues = append(issues, Issue{
			Technology: pe.Technology,
			Kind:       string(pe.Kind),
			Field:      pe.Field,
			Problem:    fmt.Sprintf("pattern %q: %v", pe.Source, pe.Err),
		})
	}))
	return issues, compiled
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
