// Package request は接続から受け取った生のバイト列を解釈する
//
// 解釈するのはリクエストラインのみで、ヘッダーやボディは読み捨てる。
package request

import (
	"errors"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Kind はリクエストラインから判定した応答の種類
type Kind int

const (
	KindFile  Kind = iota // 配信ディレクトリ内のファイル
	KindIndex             // "GET / " で始まる: インデックスページ
	KindAbout             // "GET /about " で始まる: 固定のAboutページ
)

// ErrEmptyRequest は1行も取り出せなかった場合のエラー
var ErrEmptyRequest = errors.New("空のリクエストです")

// Request はリクエストラインを解釈した結果
type Request struct {
	Line   string // 改行を除いた1行目
	Method string // 1番目のトークン (空の場合もある)
	Path   string // 2番目のトークン。なければ "/"
	Kind   Kind
}

// Decode はバイト列をUTF-8として解釈する
// 不正なバイトは U+FFFD に置き換えられる
// ReplaceIllFormed はエラーを返さないため結果だけを使う
func Decode(raw []byte) string {
	s, _, _ := transform.String(runes.ReplaceIllFormed(), string(raw))
	return s
}

// Parse は受信したバイト列の1行目からメソッドとパスを取り出す
func Parse(raw []byte) (*Request, error) {
	text := Decode(raw)
	if text == "" {
		return nil, ErrEmptyRequest
	}

	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSuffix(line, "\r")

	req := &Request{Line: line, Path: "/"}

	fields := strings.Fields(line)
	if len(fields) > 0 {
		req.Method = fields[0]
	}
	if len(fields) > 1 {
		req.Path = fields[1]
	}

	// 前方一致のみで判定する。"GET /" のように後ろに空白がない場合はファイル扱い
	switch {
	case strings.HasPrefix(line, "GET / "):
		req.Kind = KindIndex
	case strings.HasPrefix(line, "GET /about "):
		req.Kind = KindAbout
	default:
		req.Kind = KindFile
	}

	return req, nil
}
