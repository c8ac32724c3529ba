package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:   version,
			BuildTime: buildTime,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		out := cmd.OutOrStdout()
		if outputFlag == "json" {
			return json.NewEncoder(out).Encode(info)
		}
		fmt.Fprintf(out, "decorest version %s\n", info.Version)
		fmt.Fprintf(out, "Built: %s\n", info.BuildTime)
		fmt.Fprintf(out, "Go: %s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}
