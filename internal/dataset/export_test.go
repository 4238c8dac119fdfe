package dataset

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
)

func TestCSVFileName(t *testing.T) {
	now := time.Date(2024, 5, 1, 13, 4, 5, 0, time.Local)
	if got := CSVFileName(now); got != "output_2024_05_01_13_04_05.csv" {
		t.Errorf("文件名不正确: %s", got)
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatalf("创建输出端失败: %v", err)
	}

	first := sampleRecord("1")
	first["rating_Value"] = "bubble_50"
	first["rating_Rooms"] = "bubble_40"
	second := sampleRecord("2")
	second["rating_Value"] = "bubble_30"
	sink.Emit(first)
	sink.Emit(second)

	out := filepath.Join(t.TempDir(), "out", CSVFileName(time.Now()))
	n, err := ExportCSV(dir, out, nil)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if n != 2 {
		t.Errorf("期望导出2条, 实际%d", n)
	}

	file, err := os.Open(out)
	if err != nil {
		t.Fatalf("打开CSV失败: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("读取CSV失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望3行(含表头), 实际%d", len(rows))
	}

	wantHeader := append(append([]string{}, models.CoreFields...), "rating_Rooms", "rating_Value")
	if len(rows[0]) != len(wantHeader) {
		t.Fatalf("表头不正确: %v", rows[0])
	}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("第%d列表头: 期望%s, 实际%s", i+1, h, rows[0][i])
		}
	}

	// 第二条没有rating_Rooms,对应列留空
	roomsCol := len(models.CoreFields)
	if rows[2][0] != "2" || rows[2][roomsCol] != "" || rows[2][roomsCol+1] != "bubble_30" {
		t.Errorf("第二条记录未对齐: %v", rows[2])
	}
}

func TestExportCSV_Errors(t *testing.T) {
	t.Run("目录不存在", func(t *testing.T) {
		_, err := ExportCSV(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "a.csv"), nil)
		if err == nil {
			t.Error("期望返回错误")
		}
	})

	t.Run("空数据集", func(t *testing.T) {
		_, err := ExportCSV(t.TempDir(), filepath.Join(t.TempDir(), "a.csv"), nil)
		if !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("期望ErrEmptyDataset, 实际%v", err)
		}
	})
}
