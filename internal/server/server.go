package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"komorebi/internal/config"
	"komorebi/internal/static"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = 1 * time.Second
)

// Server は静的ファイルを配信するTCPサーバーを管理する構造体
type Server struct {
	config   *config.Config
	resolver *static.Resolver

	mu       sync.Mutex
	listener net.Listener
	admin    *http.Server
	closing  bool

	serving sync.WaitGroup // 受け入れループ
	wg      sync.WaitGroup // 処理中の接続
	conns   sync.Map       // 接続ID -> net.Conn
	stats   counters
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		resolver: static.NewResolver(static.Options{
			Root:           cfg.Static.Root,
			IndexFile:      cfg.Static.IndexFile,
			FallbackFile:   cfg.Static.FallbackFile,
			StrictNotFound: cfg.Static.StrictNotFound,
		}),
	}
}

// Start はサーバーを起動し、コンテキストのキャンセルかシグナルを受けるまで動作する
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.Listen(ctx)
	if err != nil {
		return err
	}

	// サーバー停止用のチャンネル
	errCh := make(chan error, 2)

	go func() {
		log.Printf("ファイル配信サーバーを起動しています: http://%s (root=%s, 最大接続数=%d)",
			ln.Addr(), s.config.Static.Root, s.config.Admission.MaxConnections)
		if err := s.Serve(ln); err != nil {
			errCh <- fmt.Errorf("サーバーの実行に失敗: %w", err)
		}
	}()

	if s.config.Admin.Enabled {
		if err := s.startAdmin(ctx, errCh); err != nil {
			_ = s.Shutdown()
			return err
		}
	}

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-errCh:
		_ = s.Shutdown()
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Listen は設定されたアドレスでTCPリスナーを作成する
func (s *Server) Listen(ctx context.Context) (net.Listener, error) {
	ln, err := listenConfig(s.config.Server).Listen(ctx, "tcp", s.config.ServerAddress())
	if err != nil {
		return nil, fmt.Errorf("リスナーの作成に失敗 (%s): %w", s.config.ServerAddress(), err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return ln, nil
}

// Serve はリスナーが閉じられるまで接続を受け入れ続ける
// 同時に処理する接続数は MaxConnections で制限され、空きがない間は受け入れを待つ
func (s *Server) Serve(ln net.Listener) error {
	limited := netutil.LimitListener(ln, s.config.Admission.MaxConnections)

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.listener = limited
	s.serving.Add(1)
	s.mu.Unlock()
	defer s.serving.Done()

	var delay time.Duration
	for {
		conn, err := limited.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			// 一時的なエラーとみなして待ってから再試行する
			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			log.Printf("接続の受け入れに失敗しました (%v 後に再試行): %v", delay, err)
			time.Sleep(delay)
			continue
		}

		delay = 0
		s.dispatch(conn)
	}
}

// Addr はリッスンしているアドレスを返す。リッスン前は nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
// 猶予時間内に終わらない接続は読み書きの期限を過去にして打ち切る
// ShutdownTimeout が0の場合は期限を設けずにすべての接続の終了を待つ
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	s.mu.Lock()
	s.closing = true
	ln, admin := s.listener, s.admin
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	if d := s.config.Server.ShutdownTimeout.Std(); d > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), d)
	}
	defer cancel()

	var errs []error
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("リスナーのクローズに失敗: %w", err))
		}
	}
	s.serving.Wait()

	if admin != nil {
		if err := admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("管理APIのシャットダウンに失敗: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// 期限と同時に終わっていた場合は打ち切らない
		select {
		case <-done:
		default:
			s.forceClose()
			errs = append(errs, errors.New("接続の終了待ちがタイムアウトしました"))
		}
		<-done
	}

	if len(errs) > 0 {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", errors.Join(errs...))
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}

// forceClose は処理中の接続の読み書き期限を過去にして処理を終わらせる
func (s *Server) forceClose() {
	log.Printf("猶予時間を超えたため処理中の接続を打ち切ります (%d件)", s.stats.inFlight.Load())
	s.conns.Range(func(_, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			_ = conn.SetDeadline(time.Now())
		}
		return true
	})
}
