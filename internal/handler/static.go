package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// NewStaticHandler はクライアントのビルド成果物を配信するハンドラーを返す。
// 存在しないパスへのGETはクライアント側ルーティングのためindex.htmlを返す。
func NewStaticHandler(fsys fs.FS) http.Handler {
	fileServer := http.FileServerFS(fsys)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			fileServer.ServeHTTP(w, r)
			return
		}
		if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFileFS(w, r, fsys, "index.html")
	})
}
