package providers

import (
	"fmt"
	"path/filepath"
	"qrmanager/internal/structures"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("scanner.workers", 4)
	v.SetDefault("scanner.queueSize", 100)
	v.SetDefault("scanner.skipSeconds", 60)
	v.SetDefault("scanner.putTimeout", time.Second)
	v.SetDefault("scanner.retryDelay", 50*time.Millisecond)
	v.SetDefault("scanner.progressInterval", 10*time.Second)
	v.SetDefault("store.dataDir", "data")
	v.SetDefault("store.fileName", "channels.json")
	v.SetDefault("store.backupLegacy", true)
	v.SetDefault("store.backupLevel", "best")
	v.SetDefault("render.size", 330)
	v.SetDefault("render.imageDir", "qr_images")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "logs")
	v.SetDefault("metrics.host", "127.0.0.1")
	v.SetDefault("metrics.port", 9100)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setDefaults(v)

	v.BindEnv("logger.level", "QRSCAN_LOG_LEVEL")
	v.BindEnv("scanner.workers", "QRSCAN_WORKERS")
	v.BindEnv("scanner.queueSize", "QRSCAN_QUEUE_SIZE")
	v.BindEnv("store.dataDir", "QRSCAN_DATA_DIR")
	v.BindEnv("metrics.enabled", "QRSCAN_METRICS_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "QRScan"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
