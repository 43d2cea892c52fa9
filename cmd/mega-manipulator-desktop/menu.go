package main

import (
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// buildMenu returns the platform menu. macOS gets the standard application
// and edit menus; elsewhere a File menu with Quit plus the edit menu.
func buildMenu(goos string, quit func()) *menu.Menu {
	appMenu := menu.NewMenu()

	if goos == "darwin" {
		appMenu.Append(menu.AppMenu())
		appMenu.Append(menu.EditMenu())
		return appMenu
	}

	fileMenu := appMenu.AddSubmenu("File")
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		quit()
	})
	appMenu.Append(menu.EditMenu())
	return appMenu
}

// quit asks the Wails runtime to close the app. It is a no-op before startup.
func (a *App) quit() {
	if a.ctx == nil {
		return
	}
	wailsRuntime.Quit(a.ctx)
}
