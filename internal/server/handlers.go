package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"komorebi/internal/config"
)

// StatsProvider は統計情報を提供する
type StatsProvider interface {
	Stats() Stats
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerInfo は配信サーバーの情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Root string `json:"root"`
}

// StatusResponse は状態取得のレスポンス
type StatusResponse struct {
	Status      string     `json:"status"`
	Version     string     `json:"version"`
	Server      ServerInfo `json:"server"`
	Connections Stats      `json:"connections"`
	Timestamp   time.Time  `json:"timestamp"`
}

// ErrorResponse はエラー時のレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AdminHandler は管理APIのハンドラ
type AdminHandler struct {
	config  *config.Config
	stats   StatsProvider
	version string
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// GetStatus は接続処理の状態取得エンドポイントの実装
func (h *AdminHandler) GetStatus(c *gin.Context) {
	response := StatusResponse{
		Status:  "running",
		Version: h.version,
		Server: ServerInfo{
			Host: h.config.Server.Host,
			Port: h.config.Server.Port,
			Root: h.config.Static.Root,
		},
		Connections: h.stats.Stats(),
		Timestamp:   time.Now(),
	}

	body, err := json.Marshal(response)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "encode_failed",
			Message:   "状態のエンコードに失敗しました",
			Timestamp: time.Now(),
		})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GetOpenAPI は埋め込みのOpenAPIドキュメントを返す
func (h *AdminHandler) GetOpenAPI(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", openAPISpec)
}

// notFound は未定義のパスへのレスポンス
func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:     "not_found",
		Message:   "指定されたパスは存在しません",
		Timestamp: time.Now(),
	})
}

// adminRouter は管理APIのルーターを作成する
func (s *Server) adminRouter(doc *openapi3.T) *gin.Engine {
	h := &AdminHandler{
		config:  s.config,
		stats:   s,
		version: doc.Info.Version,
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", h.HealthCheck)
	router.GET("/api/status", h.GetStatus)
	router.GET("/api/openapi.yaml", h.GetOpenAPI)
	router.NoRoute(notFound)

	return router
}

// startAdmin は管理APIを別ゴルーチンで起動する
func (s *Server) startAdmin(ctx context.Context, errCh chan<- error) error {
	doc, err := loadOpenAPI(ctx)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.config.AdminAddress())
	if err != nil {
		return fmt.Errorf("管理APIのリスナーの作成に失敗 (%s): %w", s.config.AdminAddress(), err)
	}

	srv := &http.Server{
		Handler:           s.adminRouter(doc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.admin = srv
	s.mu.Unlock()

	go func() {
		log.Printf("管理APIを起動しています: http://%s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("管理APIの実行に失敗: %w", err)
		}
	}()

	return nil
}
