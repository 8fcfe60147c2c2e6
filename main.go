package main

import (
	"embed"

	"kakehashi/applog"
	"kakehashi/config"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	log := applog.Init()

	cm := config.NewManager()
	if err := cm.Load(); err != nil {
		log.Errorf("error loading config: %v", err)
	}

	app := NewApp(cm, log)

	err := wails.Run(&options.App{
		Title:  "kakehashi",
		Width:  1100,
		Height: 700,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 245, G: 245, B: 245, A: 1},
		OnStartup:        app.startup,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		log.Errorf("error running app: %v", err)
	}
}
