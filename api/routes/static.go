package routes

import (
	"net/http"
	"os"
	"path"
	"strings"
)

// staticFS hides dotfiles and refuses directory listings. Directories are
// only served when they carry an index.html.
type staticFS struct {
	root http.FileSystem
}

func newStaticHandler(dir string) http.Handler {
	return http.FileServer(staticFS{root: http.Dir(dir)})
}

func (s staticFS) Open(name string) (http.File, error) {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return nil, os.ErrNotExist
		}
	}

	f, err := s.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.IsDir() {
		return f, nil
	}

	index, err := s.root.Open(path.Join(name, "index.html"))
	if err != nil {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	_ = index.Close()
	return f, nil
}
