package models

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// EpochUploadDate is stored for videos whose upload date is unknown.
const EpochUploadDate = "1970-01-01T00:00:00"

// uploadDateLayouts accepts the ISO-8601 forms written by other tools, with
// a 'T' or space separator and an optional UTC offset. Seconds may be
// omitted; fractional seconds parse without being named in the layout.
var uploadDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02",
}

var (
	codeKeys    = []string{"code", "image"}
	videoKeys   = []string{"video", "upload_date", "total_codes", "codes", "data_path"}
	channelKeys = []string{"channel_id", "videos"}
)

// Extra on the entry types holds keys written by other tools. They are not
// interpreted here but survive every load and save.

type CodeEntry struct {
	Code  string                     `json:"code"`
	Image string                     `json:"image"`
	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON also accepts a bare code string, the shape used by
// early data.json files.
func (c *CodeEntry) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		*c = CodeEntry{Code: code}
		return nil
	}
	type plain CodeEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, codeKeys)
	if err != nil {
		return err
	}
	*c = CodeEntry(p)
	c.Extra = extra
	return nil
}

func (c CodeEntry) MarshalJSON() ([]byte, error) {
	type plain CodeEntry
	return marshalWithExtra(plain(c), c.Extra, codeKeys)
}

type VideoEntry struct {
	Video      string                     `json:"video"`
	UploadDate string                     `json:"upload_date"`
	TotalCodes int                        `json:"total_codes"`
	Codes      []CodeEntry                `json:"codes"`
	DataPath   string                     `json:"data_path"`
	Extra      map[string]json.RawMessage `json:"-"`
}

func (v *VideoEntry) UnmarshalJSON(data []byte) error {
	type plain VideoEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, videoKeys)
	if err != nil {
		return err
	}
	*v = VideoEntry(p)
	v.Extra = extra
	return nil
}

func (v VideoEntry) MarshalJSON() ([]byte, error) {
	type plain VideoEntry
	return marshalWithExtra(plain(v), v.Extra, videoKeys)
}

func (v *VideoEntry) HasCode(code string) bool {
	for _, c := range v.Codes {
		if c.Code == code {
			return true
		}
	}
	return false
}

// AppendCode adds code with its image reference and keeps TotalCodes in sync.
// It returns false when the code is already recorded.
func (v *VideoEntry) AppendCode(code, image string) bool {
	if v.HasCode(code) {
		return false
	}
	v.Codes = append(v.Codes, CodeEntry{Code: code, Image: image})
	v.TotalCodes = len(v.Codes)
	return true
}

// NextImageName is the file name for the next code's image: qr_000.png, qr_001.png, ...
func (v *VideoEntry) NextImageName() string {
	return fmt.Sprintf("qr_%03d.png", v.TotalCodes)
}

type ChannelEntry struct {
	ChannelID *string                    `json:"channel_id"`
	Videos    []*VideoEntry              `json:"videos"`
	Extra     map[string]json.RawMessage `json:"-"`
}

func (c *ChannelEntry) UnmarshalJSON(data []byte) error {
	type plain ChannelEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, channelKeys)
	if err != nil {
		return err
	}
	*c = ChannelEntry(p)
	c.Extra = extra
	return nil
}

func (c ChannelEntry) MarshalJSON() ([]byte, error) {
	type plain ChannelEntry
	return marshalWithExtra(plain(c), c.Extra, channelKeys)
}

func (c *ChannelEntry) FindVideo(videoID string) *VideoEntry {
	for _, v := range c.Videos {
		if v.Video == videoID {
			return v
		}
	}
	return nil
}

// VideoSeed carries the attributes a video entry is created with.
type VideoSeed struct {
	VideoID    string
	UploadDate string
	DataPath   string
}

// UpsertVideo returns the entry for seed.VideoID, creating it if absent.
// An existing entry is returned untouched.
func (c *ChannelEntry) UpsertVideo(seed VideoSeed) (*VideoEntry, bool) {
	if v := c.FindVideo(seed.VideoID); v != nil {
		return v, false
	}
	uploadDate := seed.UploadDate
	if uploadDate == "" {
		uploadDate = EpochUploadDate
	}
	v := &VideoEntry{
		Video:      seed.VideoID,
		UploadDate: uploadDate,
		Codes:      []CodeEntry{},
		DataPath:   seed.DataPath,
	}
	c.Videos = append(c.Videos, v)
	return v, true
}

// Normalize backfills missing upload dates and recomputes TotalCodes.
// It reports whether anything changed.
func (c *ChannelEntry) Normalize() bool {
	changed := false
	for _, v := range c.Videos {
		if v.UploadDate == "" {
			v.UploadDate = EpochUploadDate
			changed = true
		}
		if v.Codes == nil {
			v.Codes = []CodeEntry{}
		}
		if v.TotalCodes != len(v.Codes) {
			v.TotalCodes = len(v.Codes)
			changed = true
		}
	}
	return changed
}

// SortVideos orders videos by upload date, newest first. If any date fails
// to parse the order is left as is and the parse error returned.
func (c *ChannelEntry) SortVideos() error {
	dates := make(map[*VideoEntry]time.Time, len(c.Videos))
	for _, v := range c.Videos {
		t, err := ParseUploadDate(v.UploadDate)
		if err != nil {
			return fmt.Errorf("video %q: %w", v.Video, err)
		}
		dates[v] = t
	}
	sort.SliceStable(c.Videos, func(i, j int) bool {
		return dates[c.Videos[i]].After(dates[c.Videos[j]])
	})
	return nil
}

// Document is the whole metadata store: channel name to channel entry.
type Document struct {
	Channels map[string]*ChannelEntry
	// Malformed holds channel values that are neither an object nor a
	// list. They are written back verbatim.
	Malformed map[string][]byte
	// Legacy lists channels that were stored as a bare list of videos.
	Legacy []string
}

func NewDocument() *Document {
	return &Document{
		Channels:  make(map[string]*ChannelEntry),
		Malformed: make(map[string][]byte),
	}
}

// UpsertChannel returns the entry for name, creating an empty one if absent.
func (d *Document) UpsertChannel(name string) (*ChannelEntry, bool) {
	if ch, ok := d.Channels[name]; ok {
		return ch, false
	}
	ch := &ChannelEntry{Videos: []*VideoEntry{}}
	d.Channels[name] = ch
	return ch, true
}

func (d *Document) DeleteChannel(name string) bool {
	_, ok := d.Channels[name]
	_, bad := d.Malformed[name]
	delete(d.Channels, name)
	delete(d.Malformed, name)
	return ok || bad
}

func (d *Document) ChannelNames() []string {
	names := make([]string, 0, len(d.Channels)+len(d.Malformed))
	for name := range d.Channels {
		names = append(names, name)
	}
	for name := range d.Malformed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ParseUploadDate(raw string) (time.Time, error) {
	for _, layout := range uploadDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable upload date %q", raw)
}

// NormalizeUploadDate turns a YYYYMMDD date into ISO-8601. Empty input maps
// to EpochUploadDate; anything else is returned unchanged.
func NormalizeUploadDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EpochUploadDate
	}
	if len(raw) == 8 && isDigits(raw) {
		return raw[:4] + "-" + raw[4:6] + "-" + raw[6:8] + "T00:00:00"
	}
	return raw
}

// SanitizeTitle keeps ASCII letters, digits, '-' and '_' and replaces
// every other rune with '_'.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// unknownKeys returns the members of the JSON object data that are not in
// known, or nil when there are none.
func unknownKeys(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// marshalWithExtra encodes v and appends the extra members after its own,
// in key order. Extra keys that collide with known are ignored.
func marshalWithExtra(v interface{}, extra map[string]json.RawMessage, known []string) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		if !contains(known, key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	for _, key := range keys {
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
