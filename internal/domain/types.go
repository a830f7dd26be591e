package domain

// Status tracks each stage of a single video submission.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusConverting Status = "converting"
	StatusUploading  Status = "uploading"
	StatusGenerating Status = "generating"
	StatusSuccess    Status = "success"
)

// Prompt is one reusable transcription prompt template served by the backend.
type Prompt struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Template string `json:"template"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	APIBaseURL string `json:"apiBaseUrl"`
	FFmpegPath string `json:"ffmpegPath"`
}

// Submission stores the current run identity, selected video, and lifecycle status.
type Submission struct {
	ID        string `json:"id"`
	VideoPath string `json:"videoPath"`
	VideoName string `json:"videoName"`
	Prompt    string `json:"prompt"`
	Status    Status `json:"status"`
	VideoID   string `json:"videoId,omitempty"`
}
