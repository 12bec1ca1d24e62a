// Package server は、TCP接続の受け入れと静的ファイルの配信を管理します。
//
// このパッケージは、接続の受け入れ、同時接続数の制御、
// リクエストの読み込みとレスポンスの書き込みを担当します。
//
// 責務:
//   - TCPリスナーの作成と接続の受け入れ
//   - 同時に処理する接続数の制限 (空きができるまで受け入れを待つ)
//   - 1接続につき1リクエストの読み込み、レスポンスの書き込み、クローズ
//   - 管理API (ヘルスチェック、接続統計) の提供
//   - グレースフルシャットダウン
//
// 仕様:
//   - HTTPの解釈はリクエストラインのみ。keep-alive はなく、レスポンス後に必ず切断する
//   - 読み込みは固定サイズのバッファまで。超えた部分は捨てる
//   - 読み書きのタイムアウトはデフォルトで無効
//   - 接続ごとのエラーはログに出力し、他の接続には影響させない
//   - 管理APIはgin-gonic/ginを使用 (デフォルトで無効)
package server
