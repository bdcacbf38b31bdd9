// Package static serves files from an fs.FS (embed.FS, os.DirFS) through a
// route with a path parameter.
//
//	//go:embed assets
//	var assets embed.FS
//
//	app.Get("/static/<file:path>", static.FS(assets, static.WithSubFS("assets")))
//
// Directory listings are never produced: a directory answers with its
// index.html when present and 404 otherwise. Range and conditional requests
// are handled by http.ServeContent.
package static
