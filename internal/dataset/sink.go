package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
)

// recordFileDigits 记录文件名的数字位数,如 000000001.json
const recordFileDigits = 9

// DirSink 把每条记录写成数据集目录下的一个编号JSON文件
type DirSink struct {
	dir   string
	next  int
	count int
	mu    sync.Mutex
}

// NewDirSink 创建目录输出端,编号接着目录中已有的最大编号继续
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据集目录失败: %w", err)
	}

	files, err := recordFiles(dir)
	if err != nil {
		return nil, err
	}

	next := 1
	for _, name := range files {
		if n, ok := recordIndex(name); ok && n >= next {
			next = n + 1
		}
	}

	return &DirSink{dir: dir, next: next}, nil
}

// Emit 写入一条记录
func (s *DirSink) Emit(record models.ReviewRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("%0*d.json", recordFileDigits, s.next)
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("写入记录失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("写入记录失败: %w", err)
	}

	s.next++
	s.count++
	return nil
}

// Count 本次写入的记录数
func (s *DirSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dir 数据集目录
func (s *DirSink) Dir() string {
	return s.dir
}

// JSONLSink 每条记录输出为一行JSON
type JSONLSink struct {
	enc *json.Encoder
	mu  sync.Mutex
}

// NewJSONLSink 创建JSON Lines输出端
func NewJSONLSink(w io.Writer) *JSONLSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLSink{enc: enc}
}

// Emit 写入一行
func (s *JSONLSink) Emit(record models.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(record); err != nil {
		return fmt.Errorf("输出记录失败: %w", err)
	}
	return nil
}

// RecordSink 与crawlers.Sink相同的方法集
type RecordSink interface {
	Emit(record models.ReviewRecord) error
}

// MultiSink 依次写入多个输出端,遇到第一个错误即返回
type MultiSink []RecordSink

// Emit 写入所有输出端
func (m MultiSink) Emit(record models.ReviewRecord) error {
	for _, s := range m {
		if err := s.Emit(record); err != nil {
			return err
		}
	}
	return nil
}

// LoadRecords 按文件名顺序读取目录下所有JSON记录
func LoadRecords(dir string) ([]models.ReviewRecord, error) {
	files, err := recordFiles(dir)
	if err != nil {
		return nil, err
	}

	records := make([]models.ReviewRecord, 0, len(files))
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("读取记录文件失败: %w", err)
		}
		var record models.ReviewRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("解析记录文件 %s 失败: %w", name, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// recordFiles 目录下的 *.json 文件名,已排序
func recordFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("扫描数据集目录失败: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names, nil
}

func recordIndex(name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
