package cmd

import (
	"SyncMusic/config"
	"SyncMusic/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 SyncMusic 服务器",
	Long:  `启动听歌室的 HTTP 服务，提供 WebSocket、媒体文件与状态接口`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(config.Load())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
