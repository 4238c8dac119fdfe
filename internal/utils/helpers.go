package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
)

// ReadURLsFromFile 从文件中读取URL列表,每行一个
func ReadURLsFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开URL文件失败: %w", err)
	}
	defer file.Close()

	urls := make([]string, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := models.ValidateURL(line); err != nil {
			Warnf("跳过无效URL (行 %d): %s - %v", lineNum, line, err)
			continue
		}

		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取URL文件失败: %w", err)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("URL文件中没有有效的URL")
	}

	Infof("从文件加载了 %d 个URL", len(urls))
	return urls, nil
}

// RunInput JSON格式的运行输入
//
//	{"urls": [{"url": "https://..."}], "max_pages": 3}
type RunInput struct {
	URLs []struct {
		URL string `json:"url"`
	} `json:"urls"`
	MaxPages int `json:"max_pages"`
}

// ReadRunInput 读取JSON输入文件,返回URL列表和页数上限(未设置时为0)
func ReadRunInput(filepath string) ([]string, int, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, 0, fmt.Errorf("读取输入文件失败: %w", err)
	}

	var input RunInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, 0, fmt.Errorf("解析输入文件失败: %w", err)
	}

	urls := make([]string, 0, len(input.URLs))
	for i, item := range input.URLs {
		u := strings.TrimSpace(item.URL)
		if err := models.ValidateURL(u); err != nil {
			Warnf("跳过无效URL (第%d项): %s - %v", i+1, u, err)
			continue
		}
		urls = append(urls, u)
	}

	if input.MaxPages < 0 {
		return nil, 0, fmt.Errorf("max_pages不能为负数: %d", input.MaxPages)
	}

	return urls, input.MaxPages, nil
}
