package static

import (
	"bytes"
	"fmt"
	"net/http"
)

const aboutPage = "<html><head><title>About</title></head><body>" +
	"<h1>About Us</h1><p>This server is powered by Go.</p>" +
	"</body></html>"

// 404.html も読めない場合に返すページ
const notFoundPage = "<html><head><title>404 Not Found</title></head><body>" +
	"<h1>404 Not Found</h1>" +
	"</body></html>"

const internalErrorBody = "500 Internal Server Error"

// Response はクライアントに書き込むレスポンス
type Response struct {
	Status      int    // ステータスコード
	ContentType string // 空の場合はヘッダーを出力しない
	Body        []byte
}

// About はファイルシステムを参照しない固定のAboutページを返す
func About() Response {
	return Response{
		Status:      http.StatusOK,
		ContentType: "text/html",
		Body:        []byte(aboutPage),
	}
}

// InternalError はリクエストを解釈できなかった場合のレスポンスを返す
func InternalError() Response {
	return Response{
		Status: http.StatusInternalServerError,
		Body:   []byte(internalErrorBody),
	}
}

// Bytes はステータスライン、Content-Type、ボディを連結したバイト列を返す
func (r Response) Bytes() []byte {
	var b bytes.Buffer
	b.Grow(64 + len(r.Body))

	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.Status, http.StatusText(r.Status))
	if r.ContentType != "" {
		fmt.Fprintf(&b, "Content-Type: %s\r\n", r.ContentType)
	}
	b.WriteString("\r\n")
	b.Write(r.Body)

	return b.Bytes()
}
