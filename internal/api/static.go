package api

import (
	"net/http"
	"os"
	"path"
)

// noListingFS serves files only. A directory resolves to its index.html when
// allowIndex is set and is reported missing otherwise.
type noListingFS struct {
	fs         http.FileSystem
	allowIndex bool
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !st.IsDir() {
		return f, nil
	}
	_ = f.Close()
	if !n.allowIndex {
		return nil, os.ErrNotExist
	}
	idx, err := n.fs.Open(path.Join(name, "index.html"))
	if err != nil {
		return nil, os.ErrNotExist
	}
	_ = idx.Close()
	return n.fs.Open(name)
}

// downloadsHandler serves rendered clips under prefix.
func downloadsHandler(prefix, dir string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(noListingFS{fs: http.Dir(dir)}))
}

// publicHandler serves the bundled front-end.
func publicHandler(dir string) http.Handler {
	return http.FileServer(noListingFS{fs: http.Dir(dir), allowIndex: true})
}
