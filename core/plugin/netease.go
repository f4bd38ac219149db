package plugin

import (
	"context"

	"SyncMusic/core/netease"
)

// NeteasePlugin 网易云音乐插件
type NeteasePlugin struct {
	client *netease.Client
}

func NewNeteasePlugin(client *netease.Client) *NeteasePlugin {
	return &NeteasePlugin{client: client}
}

func (p *NeteasePlugin) GetSource() string {
	return SourceNetease
}

func (p *NeteasePlugin) Search(ctx context.Context, query string) (*Candidate, error) {
	items, err := p.client.SearchSongs(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || items[0].ID == "" {
		return nil, nil
	}
	it := items[0]
	lyricRef := string(it.LyricID)
	if lyricRef == "" {
		lyricRef = string(it.ID)
	}
	return &Candidate{
		ID:         string(it.ID),
		Name:       it.Name,
		Artists:    it.Artist,
		Album:      it.Album,
		ArtworkRef: string(it.PicID),
		LyricRef:   lyricRef,
		Source:     SourceNetease,
	}, nil
}

func (p *NeteasePlugin) PlaybackURL(ctx context.Context, c *Candidate) (string, error) {
	return p.client.GetSongURL(ctx, c.ID)
}

func (p *NeteasePlugin) Lyrics(ctx context.Context, c *Candidate) (string, error) {
	return p.client.GetLyric(ctx, c.LyricRef)
}

func (p *NeteasePlugin) Artwork(ctx context.Context, c *Candidate) (string, error) {
	return p.client.GetPicURL(ctx, c.ArtworkRef)
}

func (p *NeteasePlugin) JoinArtists(names []string) string {
	return JoinArtistNames(names)
}
