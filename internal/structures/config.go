package structures

import "time"

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

// ScanJob is one scan request as handed over by the orchestration layer.
type ScanJob struct {
	VideoPath  string `validate:"required"`
	Channel    string `validate:"required"`
	Title      string `validate:"required"`
	UploadDate string
}

type ScannerConfig struct {
	Workers          int           `yaml:"workers" validate:"required|int|min:1"`
	QueueSize        int           `yaml:"queueSize" validate:"required|int|min:1"`
	SkipSeconds      int           `yaml:"skipSeconds" validate:"int|min:0"`
	PutTimeout       time.Duration `yaml:"putTimeout" validate:"required|min:1"`
	RetryDelay       time.Duration `yaml:"retryDelay" validate:"required|min:1"`
	ProgressInterval time.Duration `yaml:"progressInterval"`
	RemoveVideo      bool          `yaml:"removeVideo"`
}

type StoreConfig struct {
	DataDir      string `yaml:"dataDir" validate:"required|unixPath"`
	FileName     string `yaml:"fileName" validate:"required"`
	BackupLegacy bool   `yaml:"backupLegacy"`
	BackupLevel  string `yaml:"backupLevel" validate:"in:fastest,default,better,best"`
}

type RenderConfig struct {
	Size     int    `yaml:"size" validate:"required|int|min:21"`
	ImageDir string `yaml:"imageDir" validate:"required"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type Config struct {
	AppName string
	Debug   bool
	Path    string
	Scanner ScannerConfig `yaml:"scanner"`
	Store   StoreConfig   `yaml:"store"`
	Render  RenderConfig  `yaml:"render"`
	Logger  LoggerConfig  `yaml:"logger"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
}
