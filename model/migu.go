package model

// MiguSinger 咪咕歌手
type MiguSinger struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MiguAlbum 咪咕专辑
type MiguAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MiguImage 咪咕封面
type MiguImage struct {
	ImgSizeType string `json:"imgSizeType"`
	Img         string `json:"img"`
}

// MiguSong 搜索结果中的单曲
type MiguSong struct {
	ContentID string       `json:"contentId"`
	Name      string       `json:"name"`
	Singers   []MiguSinger `json:"singers"`
	Albums    []MiguAlbum  `json:"albums"`
	ImgItems  []MiguImage  `json:"imgItems"`
	LyricURL  string       `json:"lyricUrl"`
}

// MiguSearchResult search_all.do 返回
type MiguSearchResult struct {
	Code           string `json:"code"`
	SongResultData *struct {
		TotalCount string     `json:"totalCount"`
		Result     []MiguSong `json:"result"`
	} `json:"songResultData"`
}
