package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// ErrEmptyDataset 数据集目录中没有记录
var ErrEmptyDataset = errors.New("数据集中没有记录")

// CSVFileName 导出文件名,如 output_2024_05_01_13_04_05.csv
func CSVFileName(now time.Time) string {
	return "output_" + now.Format("2006_01_02_15_04_05") + ".csv"
}

// ExportCSV 把数据集目录下的记录导出为CSV
//
// 表头取第一条记录的字段(核心字段在前,子评分按名称排序),
// 后续记录按表头对齐,缺失字段留空。bar可以为nil。
func ExportCSV(datasetDir, outputPath string, bar *progressbar.ProgressBar) (int, error) {
	if _, err := os.Stat(datasetDir); err != nil {
		return 0, fmt.Errorf("数据集目录不存在: %s", datasetDir)
	}

	records, err := LoadRecords(datasetDir)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, ErrEmptyDataset
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("创建CSV文件失败: %w", err)
	}
	defer file.Close()

	if bar != nil {
		bar.ChangeMax(len(records))
	}

	w := csv.NewWriter(file)
	header := records[0].OrderedKeys()
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("写入表头失败: %w", err)
	}

	row := make([]string, len(header))
	for _, record := range records {
		alignRow(row, header, record)
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("写入CSV失败: %w", err)
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("写入CSV失败: %w", err)
	}
	return len(records), nil
}

func alignRow(row, header []string, record models.ReviewRecord) {
	for i, key := range header {
		row[i] = record[key]
	}
}
