package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"SyncMusic/config"
	"SyncMusic/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const mediaPrefix = "media/"

// MinioMirror 媒体缓存的对象存储镜像
type MinioMirror struct {
	client *minio.Client
	bucket string
}

// NewMinioMirror 连接 MinIO 并确保存储桶存在，未配置 Endpoint 时返回 nil
func NewMinioMirror(cfg *config.Config) (*MinioMirror, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}

	logger.Info("正在连接 MinIO 服务器",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioMirror{client: client, bucket: cfg.MinioBucket}, nil
}

func objectName(name string) string {
	return mediaPrefix + path.Base(name)
}

// Put 上传本地缓存文件
func (m *MinioMirror) Put(ctx context.Context, name, localPath string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, objectName(name), localPath, minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return fmt.Errorf("上传 %s 失败: %w", name, err)
	}
	return nil
}

// Fetch 把对象下载到本地路径，对象不存在时返回 false
func (m *MinioMirror) Fetch(ctx context.Context, name, localPath string) (bool, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, objectName(name), minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("查询 %s 失败: %w", name, err)
	}
	if err := m.client.FGetObject(ctx, m.bucket, objectName(name), localPath, minio.GetObjectOptions{}); err != nil {
		os.Remove(localPath)
		return false, fmt.Errorf("下载 %s 失败: %w", name, err)
	}
	return true, nil
}

// Stats 统计镜像中的媒体对象数量与总大小
func (m *MinioMirror) Stats(ctx context.Context) (count int, size int64, err error) {
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: mediaPrefix, Recursive: true}) {
		if obj.Err != nil {
			return 0, 0, obj.Err
		}
		count++
		size += obj.Size
	}
	return count, size, nil
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".mp3":
		return "audio/mpeg"
	case ".lrc":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FormatSize 人类可读的大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
