//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"qrmanager/internal"
	"qrmanager/internal/controllers"
	"qrmanager/internal/decoder"
	"qrmanager/internal/providers"
	"qrmanager/internal/render"
	"qrmanager/internal/scanner"
	"qrmanager/internal/store"
	"qrmanager/internal/structures"
	"qrmanager/internal/video"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedImageCache,

		store.NewZstdCompressor,
		store.NewFileStore,
		video.NewOpener,
		decoder.NewZXingDecoder,
		render.NewQRRenderer,
		scanner.NewScanner,
		controllers.NewHealthController,
		internal.NewApp,
	)

	return nil, nil
}
