package netease

import (
	"context"
	"fmt"
	"net/url"

	"SyncMusic/logger"
	"SyncMusic/model"
)

// GetLyric 获取原文歌词，没有歌词时返回空串
func (c *Client) GetLyric(ctx context.Context, songID string) (string, error) {
	var result model.NeteaseLyricResult
	rawURL := fmt.Sprintf("%s?os=pc&lv=-1&id=%s", c.lyricURL, url.QueryEscape(songID))
	if err := c.getJSON(ctx, rawURL, &result); err != nil {
		logger.Warn("获取歌词失败", logger.String("id", songID), logger.ErrorField(err))
		return "", err
	}
	logger.Debug("获取歌词成功", logger.String("id", songID), logger.Int("length", len(result.Lrc.Lyric)))
	return result.Lrc.Lyric, nil
}
