package models

// ScanRequest binds one scan invocation to a video file and to the
// channel/video entry its codes are persisted under.
type ScanRequest struct {
	VideoPath  string
	OutputDir  string
	Channel    string
	VideoID    string
	DataPath   string
	UploadDate string
}

type ScanStats struct {
	FramesRead      int64 `json:"frames_read"`
	FramesSkipped   int64 `json:"frames_skipped"`
	FramesDropped   int64 `json:"frames_dropped"`
	FramesDecoded   int64 `json:"frames_decoded"`
	DecodeErrors    int64 `json:"decode_errors"`
	CodesSeen       int64 `json:"codes_seen"`
	CodesPersisted  int64 `json:"codes_persisted"`
	PersistFailures int64 `json:"persist_failures"`
}

type ScanResult struct {
	ScanID     string    `json:"scan_id"`
	Video      string    `json:"video"`
	CodesFound []string  `json:"codes_found"`
	Stats      ScanStats `json:"stats"`
}

// ScanSummary is the per-video data.json written next to the scan output.
type ScanSummary struct {
	Video      string   `json:"video"`
	TotalCodes int      `json:"total_codes"`
	Codes      []string `json:"codes"`
}
