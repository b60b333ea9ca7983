package providers

import (
	"qrmanager/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		Scanner: structures.ScannerConfig{
			Workers:    4,
			QueueSize:  100,
			PutTimeout: time.Second,
			RetryDelay: 50 * time.Millisecond,
		},
		Store: structures.StoreConfig{
			DataDir:  "/tmp/qrscan/data",
			FileName: "channels.json",
		},
		Render: structures.RenderConfig{
			Size:     330,
			ImageDir: "qr_images",
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_ZeroWorkers(t *testing.T) {
	c := validConfig()
	c.Scanner.Workers = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroQueueSize(t *testing.T) {
	c := validConfig()
	c.Scanner.QueueSize = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyDataDir(t *testing.T) {
	c := validConfig()
	c.Store.DataDir = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}
