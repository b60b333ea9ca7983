package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"qrmanager/internal/models"
	"qrmanager/internal/providers"
	"qrmanager/internal/store/interfaces"
	"qrmanager/internal/structures"
	"sort"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

var ErrInvalidDocument = errors.New("invalid metadata document")

// FileStore keeps the metadata document in a single JSON file. All reads and
// writes go through mu, which is shared by every scan in the process.
type FileStore struct {
	mu           sync.Mutex
	path         string
	backupLegacy bool
	compressor   interfaces.CompressorInterface
	logger       providers.Logger
}

func NewFileStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) interfaces.MetadataStoreInterface {
	return &FileStore{
		path:         filepath.Join(conf.Store.DataDir, conf.Store.FileName),
		backupLegacy: conf.Store.BackupLegacy,
		compressor:   compressor,
		logger:       logger,
	}
}

func (s *FileStore) Load() (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Save(doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

func (s *FileStore) Update(fn func(doc *models.Document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(doc)
}

func (s *FileStore) View(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

// FixLegacyFormat rewrites channels stored as a bare list of videos into the
// {channel_id, videos} shape. The original bytes are kept as a zstd backup
// next to the document when backups are enabled.
func (s *FileStore) FixLegacyFormat() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil || data == nil {
		return false, err
	}
	doc, err := s.decode(data)
	if err != nil {
		return false, err
	}
	if len(doc.Legacy) == 0 {
		return false, nil
	}

	for _, name := range doc.Legacy {
		s.logger.Warnf(providers.TypeStore, "Fixed legacy entry for channel %s", name)
	}
	if s.backupLegacy {
		backup, err := s.writeBackup(data)
		if err != nil {
			return false, fmt.Errorf("legacy backup failed: %w", err)
		}
		s.logger.Infof(providers.TypeStore, "Legacy document backed up to %s", backup)
	}
	if err := s.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) EnsureVideo(channel string, seed models.VideoSeed) (*models.VideoEntry, error) {
	var entry models.VideoEntry
	err := s.Update(func(doc *models.Document) (bool, error) {
		ch, chCreated := doc.UpsertChannel(channel)
		if chCreated {
			s.logger.Infof(providers.TypeStore, "Added new channel %s", channel)
		}
		v, created := ch.UpsertVideo(seed)
		if created {
			s.logger.Infof(providers.TypeStore, "Added video entry %s to channel %s", seed.VideoID, channel)
		}
		entry = *v
		return chCreated || created, nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *FileStore) DeleteChannel(channel string) (bool, error) {
	deleted := false
	err := s.Update(func(doc *models.Document) (bool, error) {
		deleted = doc.DeleteChannel(channel)
		return deleted, nil
	})
	return deleted, err
}

func (s *FileStore) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// load must be called under s.mu.
func (s *FileStore) load() (*models.Document, error) {
	data, err := s.read()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return models.NewDocument(), nil
	}
	return s.decode(data)
}

func (s *FileStore) decode(data []byte) (*models.Document, error) {
	doc := models.NewDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, err)
	}

	for name, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) == 0 {
			continue
		}
		switch value[0] {
		case '{':
			var entry models.ChannelEntry
			if err := json.Unmarshal(value, &entry); err != nil {
				s.keepMalformed(doc, name, value, err)
				continue
			}
			entry.Videos = compactVideos(entry.Videos)
			doc.Channels[name] = &entry
		case '[':
			var videos []*models.VideoEntry
			if err := json.Unmarshal(value, &videos); err != nil {
				s.keepMalformed(doc, name, value, err)
				continue
			}
			doc.Channels[name] = &models.ChannelEntry{Videos: compactVideos(videos)}
			doc.Legacy = append(doc.Legacy, name)
		default:
			s.keepMalformed(doc, name, value, nil)
		}
	}
	sort.Strings(doc.Legacy)

	for name, ch := range doc.Channels {
		ch.Normalize()
		if err := ch.SortVideos(); err != nil {
			s.logger.Warnf(providers.TypeStore, "Failed to sort videos for %s: %s", name, err)
		}
	}
	return doc, nil
}

func (s *FileStore) keepMalformed(doc *models.Document, name string, value []byte, err error) {
	if err != nil {
		s.logger.Warnf(providers.TypeStore, "Skipping malformed entry for channel %s: %s", name, err)
	} else {
		s.logger.Warnf(providers.TypeStore, "Skipping malformed entry for channel %s", name)
	}
	doc.Malformed[name] = append([]byte(nil), value...)
}

func compactVideos(videos []*models.VideoEntry) []*models.VideoEntry {
	out := make([]*models.VideoEntry, 0, len(videos))
	for _, v := range videos {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

func encode(doc *models.Document) ([]byte, error) {
	out := make(map[string]interface{}, len(doc.Channels)+len(doc.Malformed))
	for name, raw := range doc.Malformed {
		out[name] = json.RawMessage(raw)
	}
	for name, ch := range doc.Channels {
		if ch.Videos == nil {
			ch.Videos = []*models.VideoEntry{}
		}
		out[name] = ch
	}
	return json.MarshalIndent(out, "", "  ")
}

// save must be called under s.mu. The document is written to a temp file and
// renamed over the old one so readers never observe a partial write.
func (s *FileStore) save(doc *models.Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.logger.Debugf(providers.TypeStore, "Saved %s with keys: %v", filepath.Base(s.path), doc.ChannelNames())
	return nil
}

// writeBackup refuses to write a backup that does not restore to data.
func (s *FileStore) writeBackup(data []byte) (string, error) {
	compressed, err := s.compressor.Compress(data)
	if err != nil {
		return "", err
	}
	restored, err := s.compressor.Decompress(compressed)
	if err != nil {
		return "", fmt.Errorf("backup does not restore: %w", err)
	}
	if !bytes.Equal(restored, data) {
		return "", errors.New("backup does not restore to the original document")
	}
	name := s.path + ".legacy-" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".zst"
	return name, writeFileAtomic(name, compressed)
}

func writeFileAtomic(fileName string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}
