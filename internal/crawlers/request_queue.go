package crawlers

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/rs/zerolog"
)

// RequestQueue 输入URL队列
// 按入队顺序出队,同一URL(规范化后)只入队一次
type RequestQueue struct {
	items []models.RequestItem
	seen  map[string]bool
	mu    sync.Mutex
	log   zerolog.Logger
}

// NewRequestQueue 创建请求队列
func NewRequestQueue(opts ...Option) *RequestQueue {
	o := buildOptions(opts)
	return &RequestQueue{
		seen: make(map[string]bool),
		log:  o.logger,
	}
}

// Push 添加URL,返回是否为新URL
func (q *RequestQueue) Push(rawURL string) (bool, error) {
	if err := models.ValidateURL(rawURL); err != nil {
		return false, err
	}

	key, err := uniqueKey(rawURL)
	if err != nil {
		return false, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.seen[key] {
		q.log.Debug().Str("url", rawURL).Msg("URL已在队列中,跳过")
		return false, nil
	}
	q.seen[key] = true
	q.items = append(q.items, models.RequestItem{
		URL:        rawURL,
		UniqueKey:  key,
		EnqueuedAt: time.Now(),
	})

	q.log.Info().Str("url", rawURL).Int("pending", len(q.items)).Msg("URL已入队")
	return true, nil
}

// Pop 取出队首,队列为空时返回false
func (q *RequestQueue) Pop() (models.RequestItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return models.RequestItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// PendingCount 待处理数量
func (q *RequestQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// uniqueKey 去掉fragment,主机名小写
func uniqueKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URL格式无效: %w", err)
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	return u.String(), nil
}
