package models

import "time"

// RequestItem 请求队列中的一项
type RequestItem struct {
	// URL 目标列表页地址
	URL string

	// UniqueKey 去重键,默认为规范化后的URL
	UniqueKey string

	// EnqueuedAt 入队时间
	EnqueuedAt time.Time
}
