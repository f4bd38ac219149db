package plugin

import (
	"context"

	"SyncMusic/core/migu"
)

// MiguPlugin 咪咕音乐插件
type MiguPlugin struct {
	client *migu.Client
}

func NewMiguPlugin(client *migu.Client) *MiguPlugin {
	return &MiguPlugin{client: client}
}

func (p *MiguPlugin) GetSource() string {
	return SourceMigu
}

func (p *MiguPlugin) Search(ctx context.Context, query string) (*Candidate, error) {
	song, err := p.client.Search(ctx, query)
	if err != nil || song == nil || song.ContentID == "" {
		return nil, err
	}

	c := &Candidate{
		ID:       song.ContentID,
		Name:     song.Name,
		LyricRef: song.LyricURL,
		Source:   SourceMigu,
	}
	for _, s := range song.Singers {
		c.Artists = append(c.Artists, s.Name)
	}
	if len(song.Albums) > 0 {
		c.Album = song.Albums[0].Name
	}
	if len(song.ImgItems) > 0 {
		c.ArtworkRef = song.ImgItems[0].Img
	}
	return c, nil
}

func (p *MiguPlugin) PlaybackURL(ctx context.Context, c *Candidate) (string, error) {
	return p.client.ListenURL(ctx, c.ID)
}

func (p *MiguPlugin) Lyrics(ctx context.Context, c *Candidate) (string, error) {
	return p.client.Lyric(ctx, c.LyricRef)
}

// Artwork 咪咕搜索结果里已经是图片地址
func (p *MiguPlugin) Artwork(ctx context.Context, c *Candidate) (string, error) {
	return c.ArtworkRef, nil
}

func (p *MiguPlugin) JoinArtists(names []string) string {
	return JoinArtistNames(names)
}
