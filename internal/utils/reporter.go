package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 运行报告生成器
type Reporter struct {
	reportsDir string
}

// NewReporter 创建报告生成器
func NewReporter(reportsDir string) *Reporter {
	return &Reporter{reportsDir: reportsDir}
}

// WriteRunReport 写入单个URL的运行报告: <reportsDir>/<run_id>.json
func (r *Reporter) WriteRunReport(report models.RunReport) (string, error) {
	if report.RunID == "" {
		return "", fmt.Errorf("运行报告缺少run_id")
	}
	return r.saveJSON(report.RunID+".json", report)
}

// WriteBatchSummary 写入批量运行摘要
func (r *Reporter) WriteBatchSummary(summary models.BatchSummary) (string, error) {
	return r.saveJSON("batch_summary.json", summary)
}

// saveJSON 保存JSON报告
func (r *Reporter) saveJSON(filename string, data interface{}) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	path := filepath.Join(r.reportsDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return path, nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
