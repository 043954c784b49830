package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "gotube",
		Short: "GoTube is a media download daemon with live progress streaming",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Running the binary bare starts the server.
			return runServe(cmd)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the download server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gotube %s\n", version)
		},
	}

	root.AddCommand(serveCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
