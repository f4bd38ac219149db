package migu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"SyncMusic/logger"
	"SyncMusic/model"
)

const searchSwitch = `{"song":1,"album":0,"singer":0,"tagSong":0,"mvSong":0,"songlist":0,"bestShow":1}`

// Client 咪咕音乐客户端
type Client struct {
	searchBase string
	listenBase string
	httpClient *http.Client
}

func NewClient(searchBase, listenBase string) *Client {
	return &Client{
		searchBase: searchBase,
		listenBase: listenBase,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			// 播放地址取自重定向的 Location，不跟随
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 10)")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	return resp, nil
}

// Search 搜索并返回第一首，没有结果时返回 nil
func (c *Client) Search(ctx context.Context, keyword string) (*model.MiguSong, error) {
	q := url.Values{}
	q.Set("ua", "Android_migu")
	q.Set("version", "5.0.1")
	q.Set("text", keyword)
	q.Set("pageNo", "1")
	q.Set("pageSize", "1")
	q.Set("searchSwitch", searchSwitch)

	resp, err := c.get(ctx, c.searchBase+"/MIGUM3.0/v1.0/content/search_all.do?"+q.Encode())
	if err != nil {
		logger.Warn("咪咕搜索失败", logger.String("keyword", keyword), logger.ErrorField(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API返回错误状态码: %d", resp.StatusCode)
	}

	var result model.MiguSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if result.SongResultData == nil || len(result.SongResultData.Result) == 0 {
		return nil, nil
	}
	song := result.SongResultData.Result[0]
	return &song, nil
}

// ListenURL 解析播放地址重定向，无重定向时返回空串
func (c *Client) ListenURL(ctx context.Context, contentID string) (string, error) {
	q := url.Values{}
	q.Set("toneFlag", "HQ")
	q.Set("netType", "00")
	q.Set("userId", "15548614588710179085069")
	q.Set("ua", "Android_migu")
	q.Set("version", "5.1")
	q.Set("copyrightId", "0")
	q.Set("contentId", contentID)
	q.Set("resourceType", "2")
	q.Set("channel", "0")

	resp, err := c.get(ctx, c.listenBase+"/MIGUM2.0/v1.0/content/sub/listenSong.do?"+q.Encode())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	loc, err := resp.Location()
	if errors.Is(err, http.ErrNoLocation) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("解析重定向失败: %w", err)
	}
	return loc.String(), nil
}

// Lyric 下载歌词文件原文
func (c *Client) Lyric(ctx context.Context, lyricURL string) (string, error) {
	if lyricURL == "" {
		return "", nil
	}
	resp, err := c.get(ctx, lyricURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("歌词返回错误状态码: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("读取歌词失败: %w", err)
	}
	return string(body), nil
}
