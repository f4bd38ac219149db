package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"SyncMusic/config"
	"SyncMusic/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO歌曲镜像统计",
	Long:  `连接配置的MinIO存储桶，统计已镜像的歌曲文件数量与总大小。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		mirror, err := storage.NewMinioMirror(cfg)
		if err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		if mirror == nil {
			log.Fatal("未配置 MINIO_ENDPOINT")
		}
		fmt.Println("MinIO连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		count, size, err := mirror.Stats(ctx)
		if err != nil {
			log.Fatalf("获取存储桶统计信息失败: %v", err)
		}
		fmt.Printf("\n文件数: %d\n总大小: %s\n", count, storage.FormatSize(size))
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
