package store

import "github.com/roach88/comboseq/internal/ir"

// Session is one engine run against one asset.
type Session struct {
	ID            string `json:"id"`
	AssetName     string `json:"asset_name"`
	AssetHash     string `json:"asset_hash"`
	ResetScope    string `json:"reset_scope"`
	EngineVersion string `json:"engine_version"`
	CreatedSeq    int64  `json:"created_seq"`
}

// FrameRecord is one recorded OnInput call.
type FrameRecord struct {
	SessionID   string   `json:"session_id"`
	Seq         int64    `json:"seq"`
	Frame       ir.Frame `json:"frame"`
	CallsDigest string   `json:"calls_digest"`
}

// CallRecord is one emitted call with its position in the frame.
type CallRecord struct {
	SessionID string       `json:"session_id"`
	FrameSeq  int64        `json:"frame_seq"`
	Ord       int          `json:"ord"`
	Call      ir.EventCall `json:"call"`
}
