package model

import "time"

// StateEntry MySQL 状态表中的一行，键与 Redis 键布局一致
type StateEntry struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:longtext" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StateEntry) TableName() string {
	return "state_entries"
}
