package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

//go:embed static/*
var staticFS embed.FS

// Register mounts the single-page front end at "/".
func Register(app *fiber.App) error {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	app.Use("/", filesystem.New(filesystem.Config{
		Root:   http.FS(sub),
		Index:  "index.html",
		MaxAge: 300,
	}))
	return nil
}
