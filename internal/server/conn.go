package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/google/uuid"

	"komorebi/internal/request"
	"komorebi/internal/static"
)

// ヘッダーの終わりを示す空行
var headerTerminator = []byte("\r\n\r\n")

// dispatch は受け入れた接続を新しいゴルーチンで処理する
// 接続はゴルーチンの起動前に登録し、シャットダウン時に必ず打ち切れるようにする
func (s *Server) dispatch(conn net.Conn) {
	id := uuid.NewString()
	s.conns.Store(id, conn)
	s.stats.acquire()
	s.wg.Add(1)
	go s.serveConn(conn, id)
}

// serveConn は1つの接続を処理する
// どの経路で終わってもカウンターの解放、接続のクローズが1回ずつ行われる
func (s *Server) serveConn(conn net.Conn, id string) {
	defer s.wg.Done()
	defer s.conns.Delete(id)
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("[%s] 接続のクローズに失敗しました: %v", id, err)
		}
	}()
	// クローズより先に解放し、処理中の数が上限を超えないようにする
	defer s.stats.release()
	defer func() {
		if r := recover(); r != nil {
			s.stats.failed.Add(1)
			log.Printf("[%s] 接続の処理中にパニックが発生しました: %v", id, r)
		}
	}()

	if err := s.handle(conn, id); err != nil {
		s.stats.failed.Add(1)
		log.Printf("[%s] 接続の処理に失敗しました: %v", id, err)
		return
	}
	s.stats.served.Add(1)
}

// handle はリクエストを読み込み、レスポンスを書き込む
func (s *Server) handle(conn net.Conn, id string) error {
	if d := s.config.Server.ReadTimeout.Std(); d > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(d)); err != nil {
			return fmt.Errorf("読み込み期限の設定に失敗: %w", err)
		}
	}

	raw, err := readRequest(conn, s.config.Server.BufferSize)
	if err != nil {
		return fmt.Errorf("リクエストの読み込みに失敗: %w", err)
	}

	resp := s.respond(id, raw)

	if d := s.config.Server.WriteTimeout.Std(); d > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(d)); err != nil {
			return fmt.Errorf("書き込み期限の設定に失敗: %w", err)
		}
	}

	if _, err := writeAll(conn, resp.Bytes()); err != nil {
		return fmt.Errorf("レスポンスの書き込みに失敗: %w", err)
	}
	return nil
}

// respond はリクエストラインに応じたレスポンスを作る
func (s *Server) respond(id string, raw []byte) static.Response {
	req, err := request.Parse(raw)
	if err != nil {
		log.Printf("[%s] リクエストを解釈できません: %v", id, err)
		return static.InternalError()
	}

	var resp static.Response
	switch req.Kind {
	case request.KindIndex:
		resp = s.resolver.Index()
	case request.KindAbout:
		resp = static.About()
	default:
		resp = s.resolver.Resolve(req.Path)
	}

	log.Printf("[%s] %q -> %d", id, req.Line, resp.Status)
	return resp
}

// readRequest は固定サイズのバッファに読み込む
// 相手が書き込みを終えた、バッファが埋まった、ヘッダーの終わりを受信した、のいずれかで終了する
// バッファを超える部分は読まずに残す
func readRequest(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	total := 0

	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n

		if bytes.Contains(buf[:total], headerTerminator) {
			break
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}

	return buf[:total], nil
}

// writeAll はすべてのバイトを書き終えるまで書き込みを繰り返す
// 1バイトも書けなかった場合はそれ以上進めないとみなして io.ErrShortWrite を返す
func writeAll(w io.Writer, b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := w.Write(b[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
