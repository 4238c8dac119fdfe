package core

import (
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/crawlers"
	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/RecoveryAshes/reviewcrawl/internal/utils"
)

// BrowserLauncher 为每个输入URL启动一个新的浏览器
type BrowserLauncher func(config models.BrowserConfig, headers http.Header) (crawlers.Browser, error)

// LaunchRodBrowser 默认的启动方式
func LaunchRodBrowser(config models.BrowserConfig, headers http.Header) (crawlers.Browser, error) {
	b, err := crawlers.LaunchBrowser(config, headers)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Crawler 单个URL的运行协调器
// 生成运行ID、检查资源、启动浏览器、执行分页抓取并写运行报告
type Crawler struct {
	config         *Config
	headerProvider models.HeaderProvider
	sink           crawlers.Sink
	reporter       *utils.Reporter
	launch         BrowserLauncher
	checkResources func(minFreeMB int, opts ...crawlers.Option) error
	options        []crawlers.Option
}

// NewCrawler 创建协调器
func NewCrawler(config *Config, headerProvider models.HeaderProvider, sink crawlers.Sink) *Crawler {
	return &Crawler{
		config:         config,
		headerProvider: headerProvider,
		sink:           sink,
		reporter:       utils.NewReporter(config.Output.ReportsDir),
		launch:         LaunchRodBrowser,
		checkResources: crawlers.CheckBrowserHeadroom,
	}
}

// SetLauncher 替换浏览器启动方式
func (c *Crawler) SetLauncher(launch BrowserLauncher) {
	c.launch = launch
}

// SetOptions 附加传给分页控制器的选项
func (c *Crawler) SetOptions(opts ...crawlers.Option) {
	c.options = opts
}

// Crawl 处理一个输入URL,任何失败都体现在报告中,不会中断调用方
func (c *Crawler) Crawl(startURL string) models.RunReport {
	report := models.RunReport{
		RunID:     models.NewRunID(),
		StartURL:  startURL,
		StartTime: time.Now(),
		State:     models.StateLoadingStart,
		Config:    c.config.Crawl,
	}
	log := utils.WithRun(report.RunID, startURL)
	log.Info().Msg("🚀 开始处理URL")

	result, err := c.run(startURL, report.RunID)
	if err != nil {
		log.Error().Err(err).Msg("❌ 运行失败")
		report.Error = err.Error()
	} else if result.Err != nil {
		report.Error = result.Err.Error()
	}

	report.State = result.State
	report.FinalURL = result.FinalURL
	report.EndTime = time.Now()
	report.Stats = models.RunStats{
		PagesProcessed: result.PagesProcessed,
		Records:        result.Records,
		FailedItems:    result.FailedItems,
		CaptchaHits:    result.CaptchaHits,
		Duration:       report.EndTime.Sub(report.StartTime).Seconds(),
	}

	if c.config.Output.ReportsDir != "" {
		if path, err := c.reporter.WriteRunReport(report); err != nil {
			log.Warn().Err(err).Msg("写入运行报告失败")
		} else {
			log.Debug().Str("path", path).Msg("运行报告已保存")
		}
	}

	log.Info().
		Str("state", string(report.State)).
		Int("pages", report.Stats.PagesProcessed).
		Int("records", report.Stats.Records).
		Float64("duration", report.Stats.Duration).
		Msg("✅ URL处理完成")
	return report
}

// run 启动浏览器并执行分页抓取,浏览器在返回前关闭
func (c *Crawler) run(startURL, runID string) (crawlers.RunResult, error) {
	result := crawlers.RunResult{State: models.StateLoadingStart}
	log := utils.WithRun(runID, startURL)

	if err := models.ValidateURL(startURL); err != nil {
		return result, err
	}

	if err := c.checkResources(c.config.Browser.MinFreeMemoryMB, crawlers.WithLogger(log)); err != nil {
		return result, err
	}

	var headers http.Header
	if c.headerProvider != nil {
		h, err := c.headerProvider.GetHeaders()
		if err != nil {
			return result, fmt.Errorf("获取请求头失败: %w", err)
		}
		headers = h
		log.Debug().Strs("headers", utils.RedactHeaders(headers)).Msg("浏览器附加请求头")
	}

	opts := append([]crawlers.Option{crawlers.WithLogger(log)}, c.options...)
	paginator, err := crawlers.NewPaginator(c.config.Crawl, c.sink, opts...)
	if err != nil {
		return result, err
	}

	browser, err := c.launch(c.config.Browser, headers)
	if err != nil {
		return result, fmt.Errorf("启动浏览器失败: %w", err)
	}
	defer func() {
		if err := browser.Quit(); err != nil {
			log.Warn().Err(err).Msg("关闭浏览器失败")
		}
	}()

	return paginator.Run(browser, startURL), nil
}
