package cmd

import (
	"fmt"
	"log"

	"SyncMusic/core/auth"

	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd [password]",
	Short: "生成房管密码的 bcrypt 哈希",
	Long:  `输出的哈希可以直接写入 ADMIN_PASS，避免在配置中保存明文密码`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			log.Fatalf("生成哈希失败: %v", err)
		}
		fmt.Println(hash)
	},
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}
