package bind

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/cmd/stackscan/internal/format"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

// ErrInvalidOutput indicates an unknown --output value.
var ErrInvalidOutput = errors.New("invalid output mode")

// DetectOptions holds configuration options for the detect command.
type DetectOptions struct {
	URLs        []string
	Timeout     time.Duration
	Cookie      string
	Output      format.OutputMode
	Concurrency int
}

// BindDetectOptions extracts and validates detect command flags.
//
// Flags read:
//   - --timeout: per page fetch timeout (0 uses detect.timeout)
//   - --cookie: Cookie header forwarded to every target
//   - --output: table or json
//   - --concurrency: parallel detections when several URLs are given
//
// Returns an error if no URL is given or a flag value is invalid.
func BindDetectOptions(cmd *cobra.Command, args []string) (DetectOptions, error) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	cookie, _ := cmd.Flags().GetString("cookie")
	output, _ := cmd.Flags().GetString("output")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	urls := make([]string, 0, len(args))
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			urls = append(urls, arg)
		}
	}

	opts := DetectOptions{
		URLs:        urls,
		Timeout:     timeout,
		Cookie:      cookie,
		Output:      format.ParseMode(output),
		Concurrency: concurrency,
	}

	if len(urls) == 0 {
		return opts, techdetect.NewURLRequiredError()
	}
	if err := format.ValidateMode(output); err != nil {
		return opts, fmt.Errorf("%w: %s", ErrInvalidOutput, output)
	}
	if timeout < 0 {
		return opts, fmt.Errorf("invalid timeout %s: must not be negative", timeout)
	}
	if concurrency < 1 {
		opts.Concurrency = 1
	}

	return opts, nil
}
