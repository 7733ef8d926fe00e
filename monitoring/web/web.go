// Package web holds the single page the msisim monitor serves. The page polls
// the monitor API for progress and buffer levels.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// devModeEnv, when true, serves the page from the source tree.
const devModeEnv = "MSISIM_MONITOR_DEV"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the files of the monitor page.
func GetAssets() http.FileSystem {
	if devMode() {
		dir := sourceDistDir()
		log.Printf("monitor page served from %s", dir)

		return http.Dir(dir)
	}

	dist, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

func sourceDistDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the monitor page sources")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(devModeEnv))
	return err == nil && on
}
