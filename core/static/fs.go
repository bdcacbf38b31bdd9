package static

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/dmitrymomot/routekit/core/handler"
)

// DefaultParam is the route parameter FS reads the file path from.
const DefaultParam = "file"

type fsConfig struct {
	subPath      string
	param        string
	cacheControl string
}

// Option configures FS.
type Option func(*fsConfig)

// WithSubFS serves files from a subdirectory of the filesystem.
func WithSubFS(dir string) Option {
	return func(c *fsConfig) {
		c.subPath = dir
	}
}

// WithParam names the route parameter carrying the file path.
func WithParam(name string) Option {
	return func(c *fsConfig) {
		if name != "" {
			c.param = name
		}
	}
}

// WithCacheControl sets the Cache-Control header on served files.
func WithCacheControl(value string) Option {
	return func(c *fsConfig) {
		c.cacheControl = value
	}
}

// FS returns a handler serving files from fsys.
//
// Panics at startup if the sub-path is invalid or the filesystem root cannot
// be opened.
func FS(fsys fs.FS, opts ...Option) handler.HandlerFunc {
	cfg := &fsConfig{param: DefaultParam}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.subPath != "" {
		sub, err := fs.Sub(fsys, cfg.subPath)
		if err != nil {
			panic("static.FS: invalid sub-path '" + cfg.subPath + "': " + err.Error())
		}
		fsys = sub
	}
	if _, err := fs.Stat(fsys, "."); err != nil {
		panic("static.FS: filesystem is not accessible: " + err.Error())
	}

	return func(req *handler.Request, res *handler.Response) error {
		name, ok := cleanName(req.ParamString(cfg.param))
		if !ok {
			return handler.Abort(http.StatusNotFound)
		}

		f, info, err := open(fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				return handler.AbortWith(http.StatusNotFound, err)
			}
			return err
		}
		defer f.Close()

		content, err := seeker(f)
		if err != nil {
			return err
		}
		if cfg.cacheControl != "" {
			res.Header().Set("Cache-Control", cfg.cacheControl)
		}
		http.ServeContent(res, req.Raw(), info.Name(), info.ModTime(), content)
		return nil
	}
}

// cleanName turns a path parameter into an fs.FS name.
func cleanName(p string) (string, bool) {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		p = "."
	}
	return p, fs.ValidPath(p)
}

// open returns the file for name, substituting index.html for directories.
func open(fsys fs.FS, name string) (fs.File, fs.FileInfo, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		name = path.Join(name, "index.html")
		if info, err = fs.Stat(fsys, name); err != nil {
			return nil, nil, err
		}
		if info.IsDir() {
			return nil, nil, fs.ErrNotExist
		}
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

func seeker(f fs.File) (io.ReadSeeker, error) {
	if rs, ok := f.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
