// Package web は組み込みのクライアントページを提供する。
// ビルド済みのクライアントが無い環境で同等の投票フォームを配信する。
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var files embed.FS

// FS はindex.htmlをルートに持つファイルシステムを返す。
func FS() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
