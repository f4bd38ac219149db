package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"SyncMusic/config"
	"SyncMusic/server"

	"github.com/spf13/cobra"
)

var (
	searchKeyword  string
	searchProvider string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "按点歌规则搜索歌曲",
	Long:  `使用与点歌相同的音乐源搜索第一条结果，并输出播放地址`,
	Run: func(cmd *cobra.Command, args []string) {
		if strings.TrimSpace(searchKeyword) == "" {
			log.Fatal("请输入要搜索的歌曲名称")
		}

		plugins := server.NewPlugins(config.Load())
		p, err := plugins.Get(searchProvider)
		if err != nil {
			log.Fatalf("音乐源不可用: %v (可选: %s)", err, strings.Join(plugins.Sources(), ", "))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		fmt.Printf("正在搜索: %s (%s)\n", searchKeyword, p.GetSource())
		c, err := p.Search(ctx, searchKeyword)
		if err != nil {
			log.Fatalf("搜索失败: %v", err)
		}
		if c == nil {
			fmt.Println("未找到相关歌曲")
			return
		}

		fmt.Printf("\n%s - %s [%s]\nID: %s\n", c.Name, p.JoinArtists(c.Artists), c.Album, c.ID)
		url, err := p.PlaybackURL(ctx, c)
		if err != nil || url == "" {
			fmt.Println("无法获取播放地址")
			return
		}
		fmt.Printf("播放地址: %s\n", url)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchKeyword, "keyword", "k", "", "搜索关键词")
	searchCmd.Flags().StringVarP(&searchProvider, "provider", "p", "netease", "音乐源: netease 或 migu")
	rootCmd.AddCommand(searchCmd)
}
