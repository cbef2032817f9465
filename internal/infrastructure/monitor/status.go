package monitor

import "time"

type Status struct {
	StorageDriver string    `json:"storage_driver"`
	Storage       bool      `json:"storage"`
	Cache         bool      `json:"cache"`
	CacheEnabled  bool      `json:"cache_enabled"`
	Buffer        bool      `json:"buffer"`
	BufferSize    int       `json:"buffer_size"`
	LastCheck     time.Time `json:"last_check"`
}
