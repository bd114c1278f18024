package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is the release version, overridable at link time with
// -ldflags "-X github.com/roach88/txvar/internal/cli.Version=v1.2.3".
var Version = "dev"

// VersionInfo is the version command's output payload.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version,omitempty"`
	Revision  string `json:"revision,omitempty"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version information",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildVersionInfo()

			if rootOpts.Format == "json" {
				formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
				return formatter.Success(info)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "txvar %s", info.Version)
			if info.Revision != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", info.Revision)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func buildVersionInfo() VersionInfo {
	info := VersionInfo{Version: Version}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" {
				info.Revision = setting.Value
			}
		}
	}
	return info
}
