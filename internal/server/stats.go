package server

import "sync/atomic"

// Stats は接続処理の統計情報
type Stats struct {
	MaxConnections int    `json:"max_connections"` // 同時に処理する最大接続数
	InFlight       int64  `json:"in_flight"`       // 処理中の接続数
	Peak           int64  `json:"peak"`            // 処理中の接続数の最大値
	Accepted       uint64 `json:"accepted"`        // 受け入れた接続の総数
	Served         uint64 `json:"served"`          // レスポンスを書き終えた接続の総数
	Failed         uint64 `json:"failed"`          // 読み書きの失敗やパニックで終わった接続の総数
}

// counters は接続処理のカウンター。すべてアトミックに更新する
type counters struct {
	inFlight atomic.Int64
	peak     atomic.Int64
	accepted atomic.Uint64
	served   atomic.Uint64
	failed   atomic.Uint64
}

// acquire は接続の処理開始を記録する
func (c *counters) acquire() {
	c.accepted.Add(1)
	n := c.inFlight.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

// release は接続の処理終了を記録する
func (c *counters) release() {
	c.inFlight.Add(-1)
}

// Stats は現在の統計情報を返す
func (s *Server) Stats() Stats {
	return Stats{
		MaxConnections: s.config.Admission.MaxConnections,
		InFlight:       s.stats.inFlight.Load(),
		Peak:           s.stats.peak.Load(),
		Accepted:       s.stats.accepted.Load(),
		Served:         s.stats.served.Load(),
		Failed:         s.stats.failed.Load(),
	}
}
