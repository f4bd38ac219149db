package cmd

import (
	"fmt"
	"os"

	"SyncMusic/config"
	"SyncMusic/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "syncmusic",
	Short: "SyncMusic 是一个多人同步听歌的聊天室服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(config.Load())
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
