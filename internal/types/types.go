package types

// VideoInfo is the subset of the downloader's metadata dump returned to clients.
type VideoInfo struct {
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Author    string  `json:"author"`
	VideoID   string  `json:"videoId"`
}

type Transcript struct {
	FullText string    `json:"text"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Highlight is a scored candidate sub-clip suggested by the language model.
type Highlight struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
	Score  int    `json:"score"`
}

type Analysis struct {
	Transcription string      `json:"transcription"`
	Segments      []Segment   `json:"segments"`
	Highlights    []Highlight `json:"highlights"`
}

// ClipRequest carries the create-clip inputs. StartTime is a pointer so that
// an explicit 0 can be told apart from an absent value.
type ClipRequest struct {
	URL       string
	StartTime *float64
	Duration  float64
	ClipName  string
}

type ClipResult struct {
	DownloadURL string `json:"downloadUrl"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
}
