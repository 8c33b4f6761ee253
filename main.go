package main

import (
	"embed"
	"log/slog"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"go.aimuz.me/omni/config"
	"go.aimuz.me/omni/internal/app"
	"go.aimuz.me/omni/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		cfg     *config.Config
		loadErr error
	)
	if path, err := config.DefaultPath(); err != nil {
		cfg, loadErr = config.Default(), err
	} else {
		cfg, loadErr = config.LoadOrDefault(path)
	}

	logCloser := logging.Setup(cfg.Log)
	defer logCloser.Close()

	// Reported only now so the error reaches the configured log output.
	if loadErr != nil {
		slog.Error("load config, using defaults", "error", loadErr)
	}

	slog.Info("starting app", "version", version, "commit", commit, "date", date)
	appService := app.New(version, cfg)

	wailsApp := application.New(application.Options{
		Name:        "Omni",
		Description: "AI-Powered Translator",
		Services: []application.Service{
			application.NewService(appService),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Keep running in the tray when the window is closed
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
		OnShutdown: appService.Shutdown,
	})

	mainWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "Omni",
		Width:  1024,
		Height: 768,
		URL:    "/",
		Mac: application.MacWindow{
			TitleBar:                application.MacTitleBarHiddenInsetUnified,
			InvisibleTitleBarHeight: 38,
		},
		DevToolsEnabled: version == "dev",
	})

	// Intercept window close: hide instead of destroy so tray can reopen
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		appService.StopAll()
		mainWindow.Hide()
	})

	appService.Init(wailsApp, mainWindow)

	systemTray := wailsApp.SystemTray.New()
	systemTray.SetLabel("Omni")

	trayMenu := wailsApp.NewMenu()
	trayMenu.Add("显示窗口").
		SetAccelerator("CmdOrCtrl+Shift+T").
		OnClick(func(ctx *application.Context) {
			appService.ShowWindow()
		})
	trayMenu.Add("停止朗读").
		SetAccelerator("CmdOrCtrl+Shift+X").
		OnClick(func(ctx *application.Context) {
			appService.StopAll()
		})

	trayMenu.AddSeparator()
	trayMenu.Add("退出").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			appService.Shutdown()
			wailsApp.Quit()
		})

	systemTray.SetMenu(trayMenu)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
