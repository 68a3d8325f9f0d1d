package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/simtest/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Path   string         `json:"path"`
	Config *config.Config `json:"config,omitempty"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("%s: config valid (%d zone(s), end_time=%g)",
		r.Path, r.Config.Building.Zones, r.Config.Run.EndTime)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a run configuration without running it",
		Long: `Validate a run configuration file.

Rejects unknown keys and checks every value against the configuration
schema. All schema violations are reported, not only the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(path)
	if err != nil {
		return reportConfigError(formatter, err)
	}
	formatter.VerboseLog("loaded %s", path)
	return formatter.Success(ValidationResult{Valid: true, Path: path, Config: cfg})
}
