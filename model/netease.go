package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexID 兼容数字与字符串两种写法的 ID
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexID(n.String())
	return nil
}

// NeteaseSearchItem 搜索接口返回的单曲
type NeteaseSearchItem struct {
	ID      FlexID   `json:"id"`
	Name    string   `json:"name"`
	Artist  []string `json:"artist"`
	Album   string   `json:"album"`
	PicID   FlexID   `json:"pic_id"`
	LyricID FlexID   `json:"lyric_id"`
	Source  string   `json:"source"`
}

// NeteaseURLResult url / pic 接口返回
type NeteaseURLResult struct {
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
	BR   int    `json:"br,omitempty"`
}

// NeteaseLyricResult 歌词接口返回
type NeteaseLyricResult struct {
	Lrc struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
	Tlyric struct {
		Lyric string `json:"lyric"`
	} `json:"tlyric"`
	Code int `json:"code"`
}
