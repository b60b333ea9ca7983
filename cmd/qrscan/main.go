package main

import (
	"fmt"
	"os"
	"qrmanager/internal/di"
	"qrmanager/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
)

func main() {
	flags := &structures.CliFlags{}
	job := structures.ScanJob{}

	pflag.StringVarP(&flags.ConfigPath, "config", "c", "configs/config.yaml", "path to the YAML config file")
	pflag.BoolVar(&flags.DebugMode, "debug", false, "mirror logs to stderr")
	pflag.StringVar(&job.VideoPath, "video", "", "local video file to scan")
	pflag.StringVar(&job.Channel, "channel", "", "channel the video belongs to, e.g. @name")
	pflag.StringVar(&job.Title, "title", "", "video title; the video id is derived from it")
	pflag.StringVar(&job.UploadDate, "upload-date", "", "upload date, YYYYMMDD or ISO-8601")
	pflag.Parse()

	app, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qrscan: %s\n", err)
		os.Exit(1)
	}

	result, err := app.Scan(job)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qrscan: %s\n", err)
		app.Close()
		os.Exit(1)
	}

	out, err := json.Marshal(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qrscan: %s\n", err)
		app.Close()
		os.Exit(1)
	}
	fmt.Println(string(out))

	if err := app.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "qrscan: %s\n", err)
		os.Exit(1)
	}
}
