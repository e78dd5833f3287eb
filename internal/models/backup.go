package models

import "time"

// BackupFile describes one snapshot in the backup directory.
type BackupFile struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	SizeHuman string    `json:"size_human"`
	CreatedAt time.Time `json:"created_at"`
}
