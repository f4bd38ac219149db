package model

// Snapshot 共享播放状态的完整副本，存储后端按整体读写
type Snapshot struct {
	Current    *Track   `json:"current,omitempty"`
	Queue      []Track  `json:"queue"`
	TrackStart int64    `json:"trackStart"` // unix 秒
	TrackEnd   int64    `json:"trackEnd"`   // unix 秒
	Elapsed    int64    `json:"elapsed"`
	Votes      []string `json:"votes"`
	Bans       []string `json:"bans"`
	Blacklist  []string `json:"blacklist"`
	Admin      string   `json:"admin"`
}

// Display 返回展示列表：槽位 0 为当前播放，其后与队列一致
func (s *Snapshot) Display() []Track {
	out := make([]Track, 0, len(s.Queue)+1)
	if s.Current != nil {
		out = append(out, *s.Current)
	}
	return append(out, s.Queue...)
}

// Clone 深拷贝
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		TrackStart: s.TrackStart,
		TrackEnd:   s.TrackEnd,
		Elapsed:    s.Elapsed,
		Admin:      s.Admin,
		Queue:      append([]Track(nil), s.Queue...),
		Votes:      append([]string(nil), s.Votes...),
		Bans:       append([]string(nil), s.Bans...),
		Blacklist:  append([]string(nil), s.Blacklist...),
	}
	if s.Current != nil {
		cur := *s.Current
		c.Current = &cur
	}
	return c
}

// IsEmpty 没有任何播放数据
func (s *Snapshot) IsEmpty() bool {
	return s.Current == nil && len(s.Queue) == 0
}
