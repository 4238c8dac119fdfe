package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/RecoveryAshes/reviewcrawl/internal/core"
	"github.com/RecoveryAshes/reviewcrawl/internal/crawlers"
	"github.com/go-rod/rod/lib/launcher"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  reviewcrawl 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	fmt.Printf("✅ Go版本: %s\n", runtime.Version())
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查浏览器
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ 已找到浏览器: %s\n", path)
	} else {
		fmt.Println("⚠️  未找到本地浏览器 - 首次运行时会自动下载")
		fmt.Println("   也可以提前运行: reviewcrawl browser install")
	}

	// 检查配置
	config, err := core.LoadConfig("")
	if err != nil {
		fmt.Printf("❌ 配置加载失败: %v\n", err)
		allOK = false
	} else if err := config.Validate(); err != nil {
		fmt.Printf("❌ 配置无效: %v\n", err)
		allOK = false
	} else {
		fmt.Println("✅ 配置有效")
	}

	// 检查内存
	if status, err := crawlers.ReadMemoryStatus(); err != nil {
		fmt.Printf("⚠️  无法读取内存状态: %v\n", err)
	} else {
		fmt.Printf("✅ 可用内存: %dMB / %dMB\n", status.AvailableMB, status.TotalMB)
		if config != nil && config.Browser.MinFreeMemoryMB > 0 &&
			status.AvailableMB < uint64(config.Browser.MinFreeMemoryMB) {
			fmt.Printf("❌ 可用内存低于 browser.min_free_memory_mb (%dMB)\n", config.Browser.MinFreeMemoryMB)
			allOK = false
		}
	}

	// 检查项目结构
	fmt.Println()
	fmt.Println("检查项目结构...")
	requiredDirs := []string{
		"cmd/reviewcrawl",
		"internal/core",
		"internal/crawlers",
		"internal/dataset",
		"internal/utils",
		"internal/models",
		"configs",
	}

	for _, dir := range requiredDirs {
		if _, err := os.Stat(dir); err == nil {
			fmt.Printf("✅ %s/\n", dir)
		} else {
			fmt.Printf("❌ %s/ 不存在\n", dir)
			allOK = false
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build -o reviewcrawl ./cmd/reviewcrawl' 构建")
		fmt.Println("  2. 运行 './reviewcrawl --help' 查看帮助")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}
