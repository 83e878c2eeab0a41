package monitor

import "time"

type Status struct {
	PostgreSQL  bool      `json:"postgresql"`
	Redis       bool      `json:"redis"`
	Archive     bool      `json:"archive"`
	ArchiveSize int       `json:"archive_size"`
	LastCheck   time.Time `json:"last_check"`
}
