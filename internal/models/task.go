package models

import (
	"fmt"
	"time"
)

// RunState 分页控制器状态
type RunState string

const (
	StateLoadingStart  RunState = "loading_start"   // 加载起始URL
	StateScanning      RunState = "scanning"        // 扫描当前页
	StateSeekingNext   RunState = "seeking_next"    // 查找下一页按钮
	StateTransitioning RunState = "transitioning"   // 等待翻页完成
	StateDone          RunState = "done"            // 自然结束(下一页按钮已禁用)
	StatePageCap       RunState = "failed_page_cap" // 达到最大页数
	StateNoNext        RunState = "failed_no_next"  // 没有下一页按钮或翻页超时
	StatePageFailed    RunState = "failed_page"     // 评论列表容器等待超时
	StateCaptcha       RunState = "failed_captcha"  // 检测到验证码(abort策略)
)

// IsTerminal 是否为终止状态
func (s RunState) IsTerminal() bool {
	switch s {
	case StateDone, StatePageCap, StateNoNext, StatePageFailed, StateCaptcha:
		return true
	}
	return false
}

// CaptchaPolicy 检测到验证码后的处理策略
type CaptchaPolicy string

const (
	CaptchaLogOnly CaptchaPolicy = "log"   // 仅记录错误,继续扫描
	CaptchaAbort   CaptchaPolicy = "abort" // 放弃当前URL
)

// TransitionPolicy 翻页等待超时后的处理策略
type TransitionPolicy string

const (
	TransitionAbort    TransitionPolicy = "abort"    // 与找不到下一页按钮相同,结束分页
	TransitionContinue TransitionPolicy = "continue" // 忽略超时,继续扫描
)

const (
	// DefaultMaxPages 未指定时的页数上限
	DefaultMaxPages = 1000

	// DefaultBaseURL 站点根地址,用于拼接相对链接
	DefaultBaseURL = "https://www.tripadvisor.com"
)

// ScrollConfig 滚动驱动配置
type ScrollConfig struct {
	Increment int           `mapstructure:"increment" json:"increment"` // 每次滚动像素 (默认:600)
	MaxLoops  int           `mapstructure:"max_loops" json:"max_loops"` // 最大循环次数 (默认:40)
	Pause     time.Duration `mapstructure:"pause" json:"pause"`         // 每次滚动后等待渲染 (默认:1s)
}

// SiteConfig 页面结构相关的选择器
type SiteConfig struct {
	BaseURL           string `mapstructure:"base_url" json:"base_url"`
	ContainerSelector string `mapstructure:"container_selector" json:"container_selector"`
	ItemSelector      string `mapstructure:"item_selector" json:"item_selector"`
	NextSelector      string `mapstructure:"next_selector" json:"next_selector"`
	CaptchaSelector   string `mapstructure:"captcha_selector" json:"captcha_selector"`
	UpdatingText      string `mapstructure:"updating_text" json:"updating_text"`
}

// CrawlConfig 单次运行的爬取配置,显式传入各组件
type CrawlConfig struct {
	MaxPages            int              `mapstructure:"max_pages" json:"max_pages"`
	StartSettle         time.Duration    `mapstructure:"start_settle" json:"start_settle"`
	PageSettle          time.Duration    `mapstructure:"page_settle" json:"page_settle"`
	ContainerTimeout    time.Duration    `mapstructure:"container_timeout" json:"container_timeout"`
	TransitionTimeout   time.Duration    `mapstructure:"transition_timeout" json:"transition_timeout"`
	OnTransitionTimeout TransitionPolicy `mapstructure:"on_transition_timeout" json:"on_transition_timeout"`
	CaptchaPolicy       CaptchaPolicy    `mapstructure:"captcha_policy" json:"captcha_policy"`
	BatchDelay          time.Duration    `mapstructure:"batch_delay" json:"batch_delay"`
	ContinueOnError     bool             `mapstructure:"continue_on_error" json:"continue_on_error"`

	Scroll ScrollConfig `mapstructure:"scroll" json:"scroll"`
	Site   SiteConfig   `mapstructure:"site" json:"site"`
}

// DefaultCrawlConfig 默认爬取配置
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		MaxPages:            DefaultMaxPages,
		StartSettle:         3 * time.Second,
		PageSettle:          2 * time.Second,
		ContainerTimeout:    30 * time.Second,
		TransitionTimeout:   10 * time.Second,
		OnTransitionTimeout: TransitionAbort,
		CaptchaPolicy:       CaptchaLogOnly,
		BatchDelay:          time.Second,
		ContinueOnError:     true,
		Scroll: ScrollConfig{
			Increment: 600,
			MaxLoops:  40,
			Pause:     time.Second,
		},
		Site: SiteConfig{
			BaseURL:           DefaultBaseURL,
			ContainerSelector: "#taplc_location_reviews_list_sur_0",
			ItemSelector:      `div[id^="review_"]`,
			NextSelector:      "a.nav.next",
			CaptchaSelector:   ".captcha-container",
			UpdatingText:      "Updating list...",
		},
	}
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.MaxPages < 1 {
		return fmt.Errorf("最大页数必须为正整数,当前值: %d", c.MaxPages)
	}
	if c.ContainerTimeout <= 0 || c.TransitionTimeout <= 0 {
		return fmt.Errorf("等待超时必须大于0")
	}
	if c.StartSettle < 0 || c.PageSettle < 0 || c.Scroll.Pause < 0 {
		return fmt.Errorf("等待时间不能为负数")
	}
	if c.Scroll.Increment < 1 {
		return fmt.Errorf("滚动步长必须为正整数,当前值: %d", c.Scroll.Increment)
	}
	if c.Scroll.MaxLoops < 0 {
		return fmt.Errorf("滚动循环上限不能为负数")
	}
	switch c.CaptchaPolicy {
	case CaptchaLogOnly, CaptchaAbort:
	default:
		return fmt.Errorf("无效的验证码策略: %s (有效值: log, abort)", c.CaptchaPolicy)
	}
	switch c.OnTransitionTimeout {
	case TransitionAbort, TransitionContinue:
	default:
		return fmt.Errorf("无效的翻页超时策略: %s (有效值: abort, continue)", c.OnTransitionTimeout)
	}
	if err := ValidateURL(c.Site.BaseURL); err != nil {
		return fmt.Errorf("站点根地址无效: %w", err)
	}
	if c.Site.ContainerSelector == "" || c.Site.ItemSelector == "" || c.Site.NextSelector == "" {
		return fmt.Errorf("页面选择器不能为空")
	}
	return nil
}

// BrowserConfig 浏览器启动配置
type BrowserConfig struct {
	Headless         bool              `mapstructure:"headless" json:"headless"`
	Bin              string            `mapstructure:"bin" json:"bin"`     // 浏览器可执行文件,为空时自动下载
	Proxy            string            `mapstructure:"proxy" json:"proxy"` // 代理服务器,如 localhost:8080
	NoSandbox        bool              `mapstructure:"no_sandbox" json:"no_sandbox"`
	IgnoreCertErrors bool              `mapstructure:"ignore_cert_errors" json:"ignore_cert_errors"`
	Headers          map[string]string `mapstructure:"headers" json:"-"`
	MinFreeMemoryMB  int               `mapstructure:"min_free_memory_mb" json:"min_free_memory_mb"` // 启动前要求的可用内存
}

// RunStats 单个URL的运行统计
type RunStats struct {
	PagesProcessed int     `json:"pages_processed"` // 已扫描页数
	Records        int     `json:"records"`         // 已输出记录数
	FailedItems    int     `json:"failed_items"`    // 提取或输出失败的条目数
	CaptchaHits    int     `json:"captcha_hits"`    // 检测到验证码次数
	Duration       float64 `json:"duration"`        // 耗时(秒)
}

// PaginationState 分页控制器内部状态,生命周期为一个输入URL
type PaginationState struct {
	PagesProcessed int
	MaxPages       int
	KeepGoing      bool
}
