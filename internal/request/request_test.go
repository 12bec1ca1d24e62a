package request

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		wantKind   Kind
		wantMethod string
		wantPath   string
	}{
		{
			name:       "インデックス",
			input:      "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n",
			wantKind:   KindIndex,
			wantMethod: "GET",
			wantPath:   "/",
		},
		{
			name:       "Aboutページ",
			input:      "GET /about HTTP/1.1\r\nHost: localhost\r\n\r\n",
			wantKind:   KindAbout,
			wantMethod: "GET",
			wantPath:   "/about",
		},
		{
			name:       "通常のファイル",
			input:      "GET /style.css HTTP/1.1\r\n\r\n",
			wantKind:   KindFile,
			wantMethod: "GET",
			wantPath:   "/style.css",
		},
		{
			name:       "GET以外のメソッドでもパスを使う",
			input:      "POST /about HTTP/1.1\r\n\r\n",
			wantKind:   KindFile,
			wantMethod: "POST",
			wantPath:   "/about",
		},
		{
			name:       "aboutの後に空白がない",
			input:      "GET /about\r\n",
			wantKind:   KindFile,
			wantMethod: "GET",
			wantPath:   "/about",
		},
		{
			name:       "ルートの後に空白がない",
			input:      "GET /",
			wantKind:   KindFile,
			wantMethod: "GET",
			wantPath:   "/",
		},
		{
			name:       "パスがない",
			input:      "GET\r\n\r\n",
			wantKind:   KindFile,
			wantMethod: "GET",
			wantPath:   "/",
		},
		{
			name:       "空行のみ",
			input:      "\r\n",
			wantKind:   KindFile,
			wantMethod: "",
			wantPath:   "/",
		},
		{
			name:       "2行目以降は無視する",
			input:      "GET /app.js HTTP/1.1\nGET /about HTTP/1.1\n",
			wantKind:   KindFile,
			wantMethod: "GET",
			wantPath:   "/app.js",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := Parse([]byte(tc.input))
			if err != nil {
				t.Fatalf("予期しないエラーが発生しました: %v", err)
			}
			if req.Kind != tc.wantKind {
				t.Errorf("種類が一致しません: got %d, want %d", req.Kind, tc.wantKind)
			}
			if req.Method != tc.wantMethod {
				t.Errorf("メソッドが一致しません: got %q, want %q", req.Method, tc.wantMethod)
			}
			if req.Path != tc.wantPath {
				t.Errorf("パスが一致しません: got %q, want %q", req.Path, tc.wantPath)
			}
			if strings.ContainsAny(req.Line, "\r\n") {
				t.Errorf("リクエストラインに改行が残っています: %q", req.Line)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, raw := range [][]byte{nil, {}} {
		_, err := Parse(raw)
		if !errors.Is(err, ErrEmptyRequest) {
			t.Errorf("ErrEmptyRequest が期待されました: got %v", err)
		}
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	testCases := []struct {
		raw  string
		want string
	}{
		{"a\xffb", "a\uFFFDb"},
		// 途中で切れた複数バイト文字
		{"caf\xc3", "caf\uFFFD"},
		// 正しいUTF-8と制御文字はそのまま
		{"木漏れ日", "木漏れ日"},
		{"\x00\x01", "\x00\x01"},
	}
	for _, tc := range testCases {
		if got := Decode([]byte(tc.raw)); got != tc.want {
			t.Errorf("デコード結果が一致しません: Decode(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}

	req, err := Parse([]byte("GET /caf\xe9.html HTTP/1.1\r\n\r\n"))
	if err != nil {
		t.Fatalf("不正なUTF-8で失敗してはいけません: %v", err)
	}
	if req.Path != "/caf�.html" {
		t.Errorf("パスの置換結果が一致しません: got %q", req.Path)
	}
}
