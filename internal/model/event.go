package model

import "time"

// GenerationEvent announces a finished generation to anything listening on the event queue.
type GenerationEvent struct {
	Page        PageID    `json:"page"`
	Description string    `json:"description"`
	Format      Format    `json:"format"`
	BinaryPath  string    `json:"binary_path,omitempty"`
	AsciiPath   string    `json:"ascii_path,omitempty"`
	Documents   int       `json:"documents"`
	CreatedAt   time.Time `json:"created_at"`
}
