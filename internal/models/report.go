package models

import (
	"encoding/json"
	"time"
)

// RunReport 单个URL的运行报告
type RunReport struct {
	// 运行信息
	RunID    string   `json:"run_id"`
	StartURL string   `json:"start_url"`
	FinalURL string   `json:"final_url,omitempty"`
	State    RunState `json:"state"`
	Error    string   `json:"error,omitempty"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 统计信息
	Stats RunStats `json:"stats"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// BatchSummary 批量运行摘要
type BatchSummary struct {
	TotalURLs     int         `json:"total_urls"`
	SuccessCount  int         `json:"success_count"` // 正常结束(done/failed_no_next/failed_page_cap)
	FailCount     int         `json:"fail_count"`
	TotalRecords  int         `json:"total_records"`
	TotalPages    int         `json:"total_pages"`
	TotalDuration float64     `json:"total_duration"`
	Reports       []RunReport `json:"reports"`
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
