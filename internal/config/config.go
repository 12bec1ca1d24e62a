package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Static    StaticConfig    `yaml:"static" toml:"static"`
	Admission AdmissionConfig `yaml:"admission" toml:"admission"`
	Admin     AdminConfig     `yaml:"admin" toml:"admin"`
}

// ServerConfig はファイル配信サーバーの設定
type ServerConfig struct {
	Host string `yaml:"host" toml:"host" validate:"required"`            // リッスンするホスト
	Port int    `yaml:"port" toml:"port" validate:"min=0,max=65535"`     // リッスンするポート番号 (0はランダム)
	// 1接続あたりの読み込みバッファサイズ。これを超えるリクエストは切り詰められる
	BufferSize int `yaml:"buffer_size" toml:"buffer_size" validate:"min=16"`

	// タイムアウト設定 (0は期限なし)
	ReadTimeout  Duration `yaml:"read_timeout" toml:"read_timeout"`   // 読み込みタイムアウト
	WriteTimeout Duration `yaml:"write_timeout" toml:"write_timeout"` // 書き込みタイムアウト
	// シャットダウン時に処理中の接続を待つ時間。0の場合は打ち切らずにすべての終了を待つ
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	ReusePort bool `yaml:"reuse_port" toml:"reuse_port"` // SO_REUSEPORT を有効にする
}

// StaticConfig は静的ファイル配信の設定
type StaticConfig struct {
	Root         string `yaml:"root" toml:"root" validate:"required"`                   // 配信するディレクトリ
	IndexFile    string `yaml:"index_file" toml:"index_file" validate:"required"`       // "/" で返すファイル
	FallbackFile string `yaml:"fallback_file" toml:"fallback_file" validate:"required"` // 見つからない場合に返すファイル

	// true の場合、フォールバック時に 404 Not Found を返す (デフォルトは 200 OK)
	StrictNotFound bool `yaml:"strict_not_found" toml:"strict_not_found"`
}

// AdmissionConfig は同時接続数の制御に関する設定
type AdmissionConfig struct {
	MaxConnections int `yaml:"max_connections" toml:"max_connections" validate:"min=1"` // 同時に処理する最大接続数
}

// AdminConfig は管理用HTTP APIの設定
type AdminConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Host    string `yaml:"host" toml:"host" validate:"required_if=Enabled true"`
	Port    int    `yaml:"port" toml:"port" validate:"min=0,max=65535"`
}

var validate = validator.New()

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			BufferSize:      8192,
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Static: StaticConfig{
			Root:         "public",
			IndexFile:    "index.html",
			FallbackFile: "404.html",
		},
		Admission: AdmissionConfig{
			MaxConnections: 8,
		},
		Admin: AdminConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8081,
		},
	}
}

// Load は設定を読み込む
// デフォルト値、CONFIG_FILE で指定された設定ファイル、環境変数の順に上書きする
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// applyEnv は環境変数で設定を上書きする
func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("SERVER_PORT", cfg.Server.Port)
	cfg.Server.BufferSize = getEnvAsIntOrDefault("BUFFER_SIZE", cfg.Server.BufferSize)
	cfg.Server.ReadTimeout = getEnvAsDurationOrDefault("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDurationOrDefault("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getEnvAsDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.ReusePort = getEnvAsBoolOrDefault("SERVER_REUSE_PORT", cfg.Server.ReusePort)

	cfg.Static.Root = getEnvOrDefault("PUBLIC_DIR", cfg.Static.Root)
	cfg.Static.StrictNotFound = getEnvAsBoolOrDefault("STRICT_NOT_FOUND", cfg.Static.StrictNotFound)

	cfg.Admission.MaxConnections = getEnvAsIntOrDefault("MAX_CONNECTIONS", cfg.Admission.MaxConnections)

	cfg.Admin.Enabled = getEnvAsBoolOrDefault("ADMIN_ENABLED", cfg.Admin.Enabled)
	cfg.Admin.Host = getEnvOrDefault("ADMIN_HOST", cfg.Admin.Host)
	cfg.Admin.Port = getEnvAsIntOrDefault("ADMIN_PORT", cfg.Admin.Port)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("無効な設定値: %w", err)
	}

	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("タイムアウトに負の値は指定できません")
	}

	// 管理APIとファイル配信で同じポートは使えない
	if c.Admin.Enabled && c.Admin.Port != 0 && c.Admin.Port == c.Server.Port {
		return fmt.Errorf("管理APIのポートがサーバーのポートと重複しています: %d", c.Admin.Port)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AdminAddress は管理APIのリッスンアドレスを返す
func (c *Config) AdminAddress() string {
	return fmt.Sprintf("%s:%d", c.Admin.Host, c.Admin.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は環境変数を真偽値として取得する
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault は環境変数を時間として取得する ("5s" など)
func getEnvAsDurationOrDefault(key string, defaultValue Duration) Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return Duration(d)
		}
	}
	return defaultValue
}
