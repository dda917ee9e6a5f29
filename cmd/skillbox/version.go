package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillbox-dev/skillbox/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		info := version.Get()
		if jsonOut {
			out, err := info.JSON()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		}

		fmt.Println(info.String())
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Output version information as JSON")

	rootCmd.AddCommand(versionCmd)
}
