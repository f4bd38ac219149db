package netease

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"SyncMusic/logger"
	"SyncMusic/model"
)

// SearchSongs 按关键字搜索，只取第一页前 count 条
func (c *Client) SearchSongs(ctx context.Context, keyword string, count int) ([]model.NeteaseSearchItem, error) {
	q := url.Values{}
	q.Set("source", "netease")
	q.Set("types", "search")
	q.Set("name", keyword)
	q.Set("count", fmt.Sprint(count))
	q.Set("pages", "1")

	var items []model.NeteaseSearchItem
	if err := c.getJSON(ctx, c.baseURL+"/api.php?"+q.Encode(), &items); err != nil {
		logger.Warn("网易云搜索失败", logger.String("keyword", keyword), logger.ErrorField(err))
		return nil, err
	}
	logger.Debug("网易云搜索完成", logger.String("keyword", keyword), logger.Int("count", len(items)))
	return items, nil
}

// GetSongURL 获取播放地址，http 地址统一替换为 https
func (c *Client) GetSongURL(ctx context.Context, songID string) (string, error) {
	var result model.NeteaseURLResult
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api.php?source=netease&types=url&id=%s", c.baseURL, url.QueryEscape(songID)), &result); err != nil {
		logger.Warn("获取歌曲URL失败", logger.String("id", songID), logger.ErrorField(err))
		return "", err
	}
	return strings.Replace(result.URL, "http://", "https://", 1), nil
}

// GetPicURL 获取封面地址
func (c *Client) GetPicURL(ctx context.Context, picID string) (string, error) {
	if picID == "" {
		return "", nil
	}
	var result model.NeteaseURLResult
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api.php?source=netease&types=pic&id=%s", c.baseURL, url.QueryEscape(picID)), &result); err != nil {
		return "", err
	}
	return result.URL, nil
}
