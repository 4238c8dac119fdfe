package core

import (
	"context"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/crawlers"
	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/RecoveryAshes/reviewcrawl/internal/utils"
	"golang.org/x/time/rate"
)

// URLRunner 处理单个URL
type URLRunner interface {
	Crawl(startURL string) models.RunReport
}

// BatchCrawler 批量处理输入URL,逐个串行执行
type BatchCrawler struct {
	runner        URLRunner
	reporter      *utils.Reporter
	limiter       *rate.Limiter // 浏览器启动间隔
	continueOnErr bool
}

// NewBatchCrawler 创建批量爬取器,reportsDir为空时不写批量摘要
func NewBatchCrawler(runner URLRunner, config *Config) *BatchCrawler {
	bc := &BatchCrawler{
		runner:        runner,
		limiter:       newLaunchLimiter(config.Crawl.BatchDelay),
		continueOnErr: config.Crawl.ContinueOnError,
	}
	if config.Output.ReportsDir != "" {
		bc.reporter = utils.NewReporter(config.Output.ReportsDir)
	}
	return bc
}

// CrawlQueue 依次处理队列中的URL,ctx取消后不再开始新的URL
func (bc *BatchCrawler) CrawlQueue(ctx context.Context, queue *crawlers.RequestQueue) models.BatchSummary {
	total := queue.PendingCount()
	utils.Infof("🚀 开始批量处理: %d个URL", total)

	summary := models.BatchSummary{
		TotalURLs: total,
		Reports:   make([]models.RunReport, 0, total),
	}
	startTime := time.Now()

	for i := 0; ; i++ {
		if queue.PendingCount() == 0 {
			break
		}
		if err := bc.limiter.Wait(ctx); err != nil {
			utils.Warn("收到中断信号,停止处理剩余URL")
			break
		}
		item, ok := queue.Pop()
		if !ok {
			break
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, total)

		report := bc.runner.Crawl(item.URL)
		summary.Reports = append(summary.Reports, report)
		summary.TotalRecords += report.Stats.Records
		summary.TotalPages += report.Stats.PagesProcessed

		if Succeeded(report) {
			summary.SuccessCount++
		} else {
			summary.FailCount++
			utils.Errorf("❌ URL处理失败: %s (%s) %s", item.URL, report.State, report.Error)
			// 页面级失败只影响当前URL,基础设施错误才会中止批量
			if !bc.continueOnErr && report.Error != "" {
				utils.Warn("批量处理中止 (continue_on_error=false)")
				break
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	bc.printSummary(summary)

	if bc.reporter != nil {
		if path, err := bc.reporter.WriteBatchSummary(summary); err != nil {
			utils.Warnf("写入批量摘要失败: %v", err)
		} else {
			utils.Debugf("批量摘要已保存: %s", path)
		}
	}

	return summary
}

// Succeeded 运行是否正常结束
// 没有下一页和达到页数上限都属于正常结束
func Succeeded(report models.RunReport) bool {
	if report.Error != "" {
		return false
	}
	switch report.State {
	case models.StateDone, models.StateNoNext, models.StatePageCap:
		return true
	}
	return false
}

func (bc *BatchCrawler) printSummary(summary models.BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量处理摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📄 总页数: %d", summary.TotalPages)
	utils.Infof("📝 总记录数: %d", summary.TotalRecords)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的URL:")
		for _, report := range summary.Reports {
			if !Succeeded(report) {
				utils.Warnf("  - %s: %s %s", report.StartURL, report.State, report.Error)
			}
		}
	}
}

// newLaunchLimiter 相邻两个URL的启动时间至少间隔delay,delay<=0时不限制
func newLaunchLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
