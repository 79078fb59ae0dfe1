// FilePath: server/dashboard/cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/config"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/server"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting W4B Dashboard Server v%s", nuts.GetVersion())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	nuts.L.Infof("[Main] Serving datasets from %s", cfg.DescribeSource())

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"    ____             __    __                         __",
		"   / __ \\____ ______/ /_  / /_  ____  ____ __________/ /",
		"  / / / / __ `/ ___/ __ \\/ __ \\/ __ \\/ __ `/ ___/ __  / ",
		" / /_/ / /_/ (__  ) / / / /_/ / /_/ / /_/ / /  / /_/ /  ",
		"/_____/\\__,_/____/_/ /_/_.___/\\____/\\__,_/_/   \\__,_/   ",
		"..........................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
