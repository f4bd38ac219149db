package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client 网易云音乐 API 客户端（meting 风格的 api.php 接口）
type Client struct {
	baseURL    string
	lyricURL   string
	httpClient *http.Client
}

// NewClient 创建客户端，baseURL 形如 https://cdn.zerodream.net/netease
func NewClient(baseURL, lyricURL string) *Client {
	return &Client{
		baseURL:  baseURL,
		lyricURL: lyricURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// getJSON 发起 GET 请求并解析 JSON
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API返回错误状态码: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
