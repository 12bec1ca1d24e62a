// Package static は配信ディレクトリのファイルをHTTPレスポンスに変換する
//
// # 責務
// - リクエストパスから配信ファイルを読み込む
// - 拡張子からContent-Typeを決める
// - ファイルが読めない場合のフォールバック (404.html、組み込みページ) を返す
//
// # 仕様
//   - パスは配信ディレクトリの後ろにそのまま連結する (正規化やトラバーサル対策はしない)
//   - フォールバックのステータスはデフォルトで 200 OK (StrictNotFound で 404)
//   - ファイルの中身は加工せずそのまま返す
package static

import (
	"net/http"
	"os"
	"strings"
)

// Options はResolverの設定
type Options struct {
	Root           string // 配信ディレクトリ
	IndexFile      string // "/" で返すファイル名
	FallbackFile   string // 読めない場合に返すファイル名
	StrictNotFound bool   // フォールバック時に 404 を返す
}

// Resolver はリクエストパスをレスポンスに解決する
type Resolver struct {
	root           string
	indexFile      string
	fallbackFile   string
	strictNotFound bool
}

// NewResolver は新しいResolverを作成する
func NewResolver(opts Options) *Resolver {
	return &Resolver{
		root:           strings.TrimSuffix(opts.Root, "/"),
		indexFile:      strings.TrimPrefix(opts.IndexFile, "/"),
		fallbackFile:   strings.TrimPrefix(opts.FallbackFile, "/"),
		strictNotFound: opts.StrictNotFound,
	}
}

// Index はインデックスページを返す
func (r *Resolver) Index() Response {
	return r.Resolve("/" + r.indexFile)
}

// Resolve はパスに対応するファイルを読み込みレスポンスを作る
// 読み込みに失敗した場合はフォールバックファイル、それも失敗した場合は組み込みページを返す
func (r *Resolver) Resolve(path string) Response {
	name := r.root + path
	if body, err := os.ReadFile(name); err == nil {
		return Response{
			Status:      http.StatusOK,
			ContentType: ContentType(name),
			Body:        body,
		}
	}

	status := http.StatusOK
	if r.strictNotFound {
		status = http.StatusNotFound
	}

	fallback := r.root + "/" + r.fallbackFile
	body, err := os.ReadFile(fallback)
	if err != nil {
		return Response{
			Status:      status,
			ContentType: "text/html",
			Body:        []byte(notFoundPage),
		}
	}

	return Response{
		Status:      status,
		ContentType: ContentType(fallback),
		Body:        body,
	}
}

// ContentType は拡張子からContent-Typeを決める
func ContentType(path string) string {
	switch {
	case strings.HasSuffix(path, ".css"):
		return "text/css"
	case strings.HasSuffix(path, ".js"):
		return "application/javascript"
	default:
		return "text/html"
	}
}
