package queue

import (
	"fmt"

	"clipforge/layout"
)

// State is the lifecycle state of a compilation job.
type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether the state is final and immutable.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// ClipRequest references one source clip in a job payload.
type ClipRequest struct {
	// ID is the vendor clip identifier.
	ID string `json:"id"`
	// URL optionally supplies a direct source URL, skipping resolution.
	URL string `json:"url,omitempty"`
}

// Payload is the submitted description of a compilation job.
type Payload struct {
	Clips    []ClipRequest   `json:"clips"`
	Template layout.Template `json:"template"`
	Camera   *layout.Region  `json:"camera,omitempty"`
	Title    string          `json:"title,omitempty"`
}

// Validate checks the payload before submission.
func (p *Payload) Validate() error {
	if len(p.Clips) == 0 {
		return fmt.Errorf("at least one clip is required")
	}
	for i, c := range p.Clips {
		if c.ID == "" && c.URL == "" {
			return fmt.Errorf("clip %d has neither id nor url", i)
		}
	}
	return p.Template.Validate()
}

// Result is a job's successful output.
type Result struct {
	VideoPath     string  `json:"video_path"`
	ThumbnailPath string  `json:"thumbnail_path,omitempty"`
	FileName      string  `json:"file_name"`
	Title         string  `json:"title,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
}

// Status is the poll view of a job.
type Status struct {
	JobID    string  `json:"job_id"`
	State    State   `json:"state"`
	Progress int     `json:"progress"`
	Result   *Result `json:"result,omitempty"`
	Error    string  `json:"error,omitempty"`
}
