// Package main はKomorebiサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"komorebi/internal/config"
	"komorebi/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host     = flag.String("host", "", "サーバーのホスト (デフォルト: 127.0.0.1)")
		port     = flag.Int("port", -1, "サーバーのポート (デフォルト: 8080)")
		root     = flag.String("root", "", "配信するディレクトリ (デフォルト: public)")
		maxConns = flag.Int("max-connections", 0, "同時に処理する最大接続数 (デフォルト: 8)")
		admin    = flag.Int("admin-port", 0, "管理APIのポート。指定すると管理APIを有効にする")
		help     = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Komorebi")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port >= 0 {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Static.Root = *root
	}
	if *maxConns > 0 {
		cfg.Admission.MaxConnections = *maxConns
	}
	if *admin > 0 {
		cfg.Admin.Enabled = true
		cfg.Admin.Port = *admin
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定が不正です: %v", err)
	}

	if _, err := os.Stat(cfg.Static.Root); err != nil {
		log.Printf("配信ディレクトリを参照できません (%s): %v", cfg.Static.Root, err)
	}

	srv := server.New(cfg)

	// サーバーを起動
	log.Printf("Komorebi サーバーを起動します: %s", cfg.ServerAddress())
	if err := srv.Start(context.Background()); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
