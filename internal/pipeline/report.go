// Package pipeline sequences resolve, fetch, extract, and upload for one
// Loom recording, and aggregates the per-stage and per-artifact outcomes.
package pipeline

import "fmt"

// Kind tags an artifact by what it is in the final report.
type Kind string

const (
	KindVideo Kind = "video"
	KindFrame Kind = "frame"
	KindAudio Kind = "audio"
)

// Stage identifies where in the run an error occurred.
type Stage string

const (
	StageResolving        Stage = "resolving"
	StageFetching         Stage = "fetching"
	StageExtractingFrames Stage = "extracting_frames"
	StageExtractingAudio  Stage = "extracting_audio"
	StageUploading        Stage = "uploading"
)

// StageError is the abort outcome of a run: the failing stage plus the
// underlying error. Individual upload failures never become a StageError;
// they are reported per artifact instead.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Artifact is a successfully uploaded file, tagged by kind. Frames appear in
// capture order.
type Artifact struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// UploadFailure records one artifact upload that failed while the run as a
// whole carried on.
type UploadFailure struct {
	Kind  Kind   `json:"kind"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Counts breaks artifact totals down by kind so callers can tell a clean run
// from a partial one without counting list entries.
type Counts struct {
	Video  int `json:"video"`
	Frames int `json:"frames"`
	Audio  int `json:"audio"`
}

// Total sums the per-kind counts.
func (c Counts) Total() int { return c.Video + c.Frames + c.Audio }

// Report is the terminal outcome of a completed run. Success means every
// stage ran to completion; compare Expected against Uploaded (or check
// Failures) to detect partial upload success.
type Report struct {
	Success         bool            `json:"success"`
	VideoID         string          `json:"video_id"`
	Title           string          `json:"title"`
	DurationSeconds float64         `json:"duration_seconds,omitempty"`
	Artifacts       []Artifact      `json:"files"`
	Failures        []UploadFailure `json:"upload_failures,omitempty"`
	Expected        Counts          `json:"expected"`
	Uploaded        Counts          `json:"uploaded"`
}

// Complete reports whether every expected artifact was uploaded.
func (r *Report) Complete() bool {
	return r.Success && r.Uploaded == r.Expected
}
