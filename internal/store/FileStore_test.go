package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"qrmanager/internal/models"
	"qrmanager/internal/structures"
	"qrmanager/internal/testutil"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string, backup bool) *structures.Config {
	return &structures.Config{
		Store: structures.StoreConfig{
			DataDir:      dir,
			FileName:     "channels.json",
			BackupLegacy: backup,
		},
	}
}

func newTestStore(t *testing.T, backup bool) (*FileStore, *testutil.MockLogger, string) {
	dir := t.TempDir()
	logger := &testutil.MockLogger{}
	s := NewFileStore(testConfig(dir, backup), &testutil.MockCompressor{}, logger).(*FileStore)
	return s, logger, filepath.Join(dir, "channels.json")
}

func readJSON(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestFileStore_Load_FileNotExist(t *testing.T) {
	s, _, _ := newTestStore(t, false)

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Channels)
	assert.Empty(t, doc.Malformed)
}

func TestFileStore_Load_EmptyFile(t *testing.T) {
	s, _, path := newTestStore(t, false)
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Channels)
}

func TestFileStore_Load_InvalidJSON(t *testing.T) {
	s, _, path := newTestStore(t, false)
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0644))

	_, err := s.Load()
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestFileStore_Load_BackfillsAndSorts(t *testing.T) {
	s, _, path := newTestStore(t, false)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"@pokerev": {"channel_id": "UC123", "videos": [
			{"video": "undated", "total_codes": 0, "codes": [], "data_path": "@pokerev/undated"},
			{"video": "newest", "upload_date": "2024-05-01T00:00:00", "total_codes": 3,
			 "codes": [{"code": "ABC-1234-XYZ-001", "image": "qr_000.png"}], "data_path": "@pokerev/newest"},
			{"video": "older", "upload_date": "2023-01-01T00:00:00", "codes": [], "data_path": "@pokerev/older"}
		]}
	}`), 0644))

	doc, err := s.Load()
	require.NoError(t, err)

	ch := doc.Channels["@pokerev"]
	require.NotNil(t, ch)
	require.NotNil(t, ch.ChannelID)
	assert.Equal(t, "UC123", *ch.ChannelID)
	require.Len(t, ch.Videos, 3)
	assert.Equal(t, "newest", ch.Videos[0].Video)
	assert.Equal(t, 1, ch.Videos[0].TotalCodes)
	assert.Equal(t, "older", ch.Videos[1].Video)
	assert.Equal(t, "undated", ch.Videos[2].Video)
	assert.Equal(t, models.EpochUploadDate, ch.Videos[2].UploadDate)
}

func TestFileStore_Load_SortFailureIsLoggedNotFatal(t *testing.T) {
	s, logger, path := newTestStore(t, false)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"@broken": {"channel_id": null, "videos": [
			{"video": "a", "upload_date": "2020-01-01T00:00:00", "codes": []},
			{"video": "b", "upload_date": "sometime", "codes": []},
			{"video": "c", "upload_date": "2024-01-01T00:00:00", "codes": []}
		]},
		"@fine": {"channel_id": null, "videos": [
			{"video": "x", "upload_date": "2020-01-01T00:00:00", "codes": []},
			{"video": "y", "upload_date": "2024-01-01T00:00:00", "codes": []}
		]}
	}`), 0644))

	doc, err := s.Load()
	require.NoError(t, err)

	broken := doc.Channels["@broken"].Videos
	assert.Equal(t, []string{"a", "b", "c"}, []string{broken[0].Video, broken[1].Video, broken[2].Video})
	fine := doc.Channels["@fine"].Videos
	assert.Equal(t, "y", fine[0].Video)
	assert.True(t, logger.Contains("warn", "Failed to sort videos for @broken"))
}

func TestFileStore_Load_PreservesMalformedEntries(t *testing.T) {
	s, logger, path := newTestStore(t, false)
	require.NoError(t, os.WriteFile(path, []byte(`{"@odd": 42, "@ok": {"channel_id": null, "videos": []}}`), 0644))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Contains(t, doc.Malformed, "@odd")
	assert.True(t, logger.Contains("warn", "@odd"))

	require.NoError(t, s.Save(doc))
	out := readJSON(t, path)
	assert.Equal(t, float64(42), out["@odd"])
}

func TestFileStore_SaveLoad_StableRoundtrip(t *testing.T) {
	s, _, path := newTestStore(t, false)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"@b": {"channel_id": null, "videos": [
			{"video": "v1", "upload_date": "2023-01-01T00:00:00", "total_codes": 1,
			 "codes": [{"code": "ABC-1234-XYZ-001", "image": "qr_000.png"}], "data_path": "@b/v1"},
			{"video": "v2", "upload_date": "2024-01-01T00:00:00", "total_codes": 0, "codes": [], "data_path": "@b/v2"}
		]},
		"@a": [{"video": "legacy", "codes": []}]
	}`), 0644))

	doc, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(doc))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	doc, err = s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(doc))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_SaveLoad_KeepsUnknownKeys(t *testing.T) {
	s, _, path := newTestStore(t, false)
	require.NoError(t, os.WriteFile(path, []byte(`{"@a": {
		"channel_id": "UC1", "handle_url": "x",
		"videos": [{"video": "v1", "upload_date": "2024-01-01T00:00:00", "total_codes": 0,
			"codes": [], "data_path": "@a/v1", "title": "Old Title"}]
	}}`), 0644))

	_, err := s.EnsureVideo("@a", models.VideoSeed{VideoID: "v2", UploadDate: "2024-02-01T00:00:00", DataPath: "@a/v2"})
	require.NoError(t, err)

	out := readJSON(t, path)
	channel := out["@a"].(map[string]interface{})
	assert.Equal(t, "UC1", channel["channel_id"])
	assert.Equal(t, "x", channel["handle_url"])
	videos := channel["videos"].([]interface{})
	require.Len(t, videos, 2)
	titles := map[interface{}]interface{}{}
	for _, v := range videos {
		video := v.(map[string]interface{})
		titles[video["video"]] = video["title"]
	}
	assert.Equal(t, "Old Title", titles["v1"])
	assert.Nil(t, titles["v2"])
}

func TestFileStore_FixLegacyFormat_RewritesBareLists(t *testing.T) {
	s, logger, path := newTestStore(t, true)
	legacy := []byte(`{
		"@legacy": [
			{"video": "first", "upload_date": "2024-01-01T00:00:00", "total_codes": 0, "codes": [], "data_path": "@legacy/first"},
			{"video": "second", "upload_date": "2023-01-01T00:00:00", "total_codes": 0, "codes": [], "data_path": "@legacy/second"}
		],
		"@modern": {"channel_id": "UC1", "videos": []}
	}`)
	require.NoError(t, os.WriteFile(path, legacy, 0644))

	changed, err := s.FixLegacyFormat()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, logger.Contains("warn", "Fixed legacy entry for channel @legacy"))

	out := readJSON(t, path)
	entry, ok := out["@legacy"].(map[string]interface{})
	require.True(t, ok, "legacy channel should be an object now")
	assert.Nil(t, entry["channel_id"])
	videos := entry["videos"].([]interface{})
	require.Len(t, videos, 2)
	assert.Equal(t, "first", videos[0].(map[string]interface{})["video"])
	assert.Equal(t, "second", videos[1].(map[string]interface{})["video"])
	assert.Equal(t, "UC1", out["@modern"].(map[string]interface{})["channel_id"])

	backups, err := filepath.Glob(path + ".legacy-*.zst")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	backup, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, legacy, backup)

	changed, err = s.FixLegacyFormat()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFileStore_FixLegacyFormat_NothingToDo(t *testing.T) {
	s, _, path := newTestStore(t, true)

	changed, err := s.FixLegacyFormat()
	require.NoError(t, err)
	assert.False(t, changed)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	original := []byte(`{"@modern": {"channel_id": null, "videos": []}}`)
	require.NoError(t, os.WriteFile(path, original, 0644))
	changed, err = s.FixLegacyFormat()
	require.NoError(t, err)
	assert.False(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestFileStore_FixLegacyFormat_BackupFailureKeepsDocument(t *testing.T) {
	dir := t.TempDir()
	comp := &testutil.MockCompressor{
		CompressFn: func([]byte) ([]byte, error) { return nil, errors.New("compress failed") },
	}
	s := NewFileStore(testConfig(dir, true), comp, &testutil.MockLogger{})
	path := filepath.Join(dir, "channels.json")
	legacy := []byte(`{"@legacy": [{"video": "a", "codes": []}]}`)
	require.NoError(t, os.WriteFile(path, legacy, 0644))

	_, err := s.FixLegacyFormat()
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, legacy, data)
}

func TestFileStore_FixLegacyFormat_UnrestorableBackupKeepsDocument(t *testing.T) {
	dir := t.TempDir()
	comp := &testutil.MockCompressor{
		DecompressFn: func(b []byte) ([]byte, error) { return b[:len(b)/2], nil },
	}
	s := NewFileStore(testConfig(dir, true), comp, &testutil.MockLogger{})
	path := filepath.Join(dir, "channels.json")
	legacy := []byte(`{"@legacy": [{"video": "a", "codes": []}]}`)
	require.NoError(t, os.WriteFile(path, legacy, 0644))

	changed, err := s.FixLegacyFormat()
	assert.Error(t, err)
	assert.False(t, changed)

	backups, err := filepath.Glob(path + ".legacy-*.zst")
	require.NoError(t, err)
	assert.Empty(t, backups)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, legacy, data)
}

func TestFileStore_FixLegacyFormat_ZstdBackupRestores(t *testing.T) {
	dir := t.TempDir()
	comp, err := NewZstdCompressor(compressorConfig("fastest"))
	require.NoError(t, err)
	s := NewFileStore(testConfig(dir, true), comp, &testutil.MockLogger{})
	path := filepath.Join(dir, "channels.json")
	legacy := legacyDocument()
	require.NoError(t, os.WriteFile(path, legacy, 0644))

	changed, err := s.FixLegacyFormat()
	require.NoError(t, err)
	assert.True(t, changed)

	backups, err := filepath.Glob(path + ".legacy-*.zst")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	packed, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	restored, err := comp.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, legacy, restored)
}

func TestFileStore_Update_ErrorSkipsSave(t *testing.T) {
	s, _, path := newTestStore(t, false)

	err := s.Update(func(doc *models.Document) (bool, error) {
		doc.UpsertChannel("@x")
		return true, errors.New("boom")
	})
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	err = s.Update(func(doc *models.Document) (bool, error) {
		doc.UpsertChannel("@x")
		return false, nil
	})
	require.NoError(t, err)
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_EnsureVideo(t *testing.T) {
	s, _, path := newTestStore(t, false)
	seed := models.VideoSeed{VideoID: "Pack_Opening", UploadDate: "2024-01-31T00:00:00", DataPath: "@pokerev/Pack_Opening"}

	v, err := s.EnsureVideo("@pokerev", seed)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31T00:00:00", v.UploadDate)

	_, err = s.EnsureVideo("@pokerev", seed)
	require.NoError(t, err)

	out := readJSON(t, path)
	ch := out["@pokerev"].(map[string]interface{})
	assert.Nil(t, ch["channel_id"])
	videos := ch["videos"].([]interface{})
	require.Len(t, videos, 1)
	video := videos[0].(map[string]interface{})
	assert.Equal(t, "Pack_Opening", video["video"])
	assert.Equal(t, float64(0), video["total_codes"])
	assert.Equal(t, []interface{}{}, video["codes"])
	assert.Equal(t, "@pokerev/Pack_Opening", video["data_path"])
}

func TestFileStore_DeleteChannel(t *testing.T) {
	s, _, _ := newTestStore(t, false)
	_, err := s.EnsureVideo("@a", models.VideoSeed{VideoID: "v"})
	require.NoError(t, err)

	deleted, err := s.DeleteChannel("@a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteChannel("@a")
	require.NoError(t, err)
	assert.False(t, deleted)

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Channels)
}

func TestFileStore_ConcurrentUpdates_NoLostWrites(t *testing.T) {
	s, _, _ := newTestStore(t, false)

	const writers = 8
	const perWriter = 10
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				code := fmt.Sprintf("W%02d-%04d-AAA-BBB", w, i)
				err := s.Update(func(doc *models.Document) (bool, error) {
					ch, _ := doc.UpsertChannel("@shared")
					v, _ := ch.UpsertVideo(models.VideoSeed{VideoID: fmt.Sprintf("video-%d", w%2)})
					return v.AppendCode(code, v.NextImageName()), nil
				})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	doc, err := s.Load()
	require.NoError(t, err)
	total := 0
	for _, v := range doc.Channels["@shared"].Videos {
		assert.Equal(t, len(v.Codes), v.TotalCodes)
		total += v.TotalCodes
	}
	assert.Equal(t, writers*perWriter, total)
}
