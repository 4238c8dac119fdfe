package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/core"
	"github.com/RecoveryAshes/reviewcrawl/internal/crawlers"
	"github.com/RecoveryAshes/reviewcrawl/internal/dataset"
	"github.com/RecoveryAshes/reviewcrawl/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 请求头参数
	headers        []string
	validateConfig bool

	// 输入参数
	targetURLs []string
	urlFile    string
	inputFile  string

	// 爬取参数
	maxPages            int
	headless            bool
	noSandbox           bool
	ignoreCertErrors    bool
	browserBin          string
	proxy               string
	captchaPolicy       string
	onTransitionTimeout string

	// 输出参数
	datasetDir string
	reportsDir string
	toStdout   bool

	// 导出参数
	exportDataset string
	exportOutDir  string
)

// appConfig 在PersistentPreRunE中加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "reviewcrawl",
	Short: "TripAdvisor评论列表抓取工具",
	Long: `reviewcrawl - 基于浏览器自动化的评论列表抓取工具

对每个输入URL启动一个浏览器,逐页滚动加载评论、提取字段并写入数据集目录:
  • 评论ID、标题、链接、正文、日期、总评分及各分项评分
  • 最大页数限制,下一页按钮消失即结束
  • 验证码检测与翻页超时策略可配置
  • 自定义请求头、代理
  • 数据集导出为CSV

示例:
  reviewcrawl -u "https://www.tripadvisor.com/Hotel_Review-g60763-d93450-Reviews-Hotel.html" -p 3
  reviewcrawl -f urls.txt -H "Accept-Language: en-GB"
  reviewcrawl -i input.json --proxy localhost:8080 --ignore-cert-errors
  reviewcrawl export

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := config.LogConfig()
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}
		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	headerManager, err := core.NewHeaderManager(appConfig.Browser.Headers, headers)
	if err != nil {
		return fmt.Errorf("创建请求头管理器失败: %w", err)
	}

	if validateConfig {
		utils.Info("🔍 验证配置...")
		if err := headerManager.Validate(); err != nil {
			return fmt.Errorf("请求头验证失败: %w", err)
		}
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("配置验证失败: %w", err)
		}
		safeHeaders := headerManager.GetSafeHeaders()
		utils.Info("✅ 配置验证通过!")
		utils.Infof("当前有效的请求头 (%d个):", len(safeHeaders))
		for _, line := range safeHeaders {
			utils.Infof("  %s", line)
		}
		return nil
	}

	if len(targetURLs) == 0 && urlFile == "" && inputFile == "" {
		return cmd.Help()
	}

	if err := ValidateFlags(targetURLs, maxPages, captchaPolicy, onTransitionTimeout); err != nil {
		return err
	}

	urls, inputMaxPages, err := collectURLs()
	if err != nil {
		return err
	}

	appConfig.MergeCLIFlags(buildOverrides(cmd, inputMaxPages))
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}

	queue := crawlers.NewRequestQueue()
	for _, u := range urls {
		if _, err := queue.Push(u); err != nil {
			utils.Warnf("跳过无效URL: %s - %v", u, err)
		}
	}
	if queue.PendingCount() == 0 {
		return fmt.Errorf("没有可处理的URL")
	}

	sink, err := buildSink()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 第一次Ctrl+C处理完当前URL后退出,第二次立即退出
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		utils.Warnf("收到中断信号: %v, 当前URL完成后退出 (再次按下立即退出)", sig)
		cancel()
		<-sigChan
		os.Exit(130)
	}()

	crawler := core.NewCrawler(appConfig, headerManager, sink)
	batch := core.NewBatchCrawler(crawler, appConfig)
	summary := batch.CrawlQueue(ctx, queue)

	utils.Infof("✨ 任务完成! 共%d条记录, 数据集目录: %s", summary.TotalRecords, appConfig.Output.DatasetDir)
	return nil
}

// collectURLs 汇总 -u、--url-file、--input 三种来源的URL
func collectURLs() ([]string, int, error) {
	urls := append([]string{}, targetURLs...)

	if urlFile != "" {
		fromFile, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return nil, 0, fmt.Errorf("读取URL文件失败: %w", err)
		}
		urls = append(urls, fromFile...)
	}

	var inputMaxPages int
	if inputFile != "" {
		fromInput, maxPages, err := utils.ReadRunInput(inputFile)
		if err != nil {
			return nil, 0, err
		}
		urls = append(urls, fromInput...)
		inputMaxPages = maxPages
	}

	return urls, inputMaxPages, nil
}

// buildOverrides 只有显式指定的参数才覆盖配置文件
func buildOverrides(cmd *cobra.Command, inputMaxPages int) core.Overrides {
	flags := cmd.Flags()
	o := core.Overrides{
		MaxPages:            inputMaxPages,
		BrowserBin:          browserBin,
		Proxy:               proxy,
		CaptchaPolicy:       captchaPolicy,
		OnTransitionTimeout: onTransitionTimeout,
		DatasetDir:          datasetDir,
		ReportsDir:          reportsDir,
	}
	if maxPages > 0 {
		o.MaxPages = maxPages
	}
	if flags.Changed("headless") {
		o.Headless = &headless
	}
	if flags.Changed("no-sandbox") {
		o.NoSandbox = &noSandbox
	}
	if flags.Changed("ignore-cert-errors") {
		o.IgnoreCertErrors = &ignoreCertErrors
	}
	if flags.Changed("stdout") {
		o.Stdout = &toStdout
	}
	return o
}

func buildSink() (crawlers.Sink, error) {
	dirSink, err := dataset.NewDirSink(appConfig.Output.DatasetDir)
	if err != nil {
		return nil, err
	}
	if appConfig.Output.Stdout {
		return dataset.MultiSink{dirSink, dataset.NewJSONLSink(os.Stdout)}, nil
	}
	return dirSink, nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "把数据集目录导出为CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := exportDataset
		if dir == "" {
			dir = appConfig.Output.DatasetDir
		}
		out := filepath.Join(exportOutDir, dataset.CSVFileName(time.Now()))

		bar := utils.NewProgressBar(-1, "导出CSV")
		n, err := dataset.ExportCSV(dir, out, bar)
		bar.Finish()
		if err != nil {
			return fmt.Errorf("导出失败: %w", err)
		}

		utils.Infof("✅ CSV文件已生成: %s (%d条记录)", out, n)
		return nil
	},
}

var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "浏览器管理",
}

var browserInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "下载浏览器",
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.Info("⬇️  正在下载浏览器...")
		path, err := crawlers.InstallBrowser()
		if err != nil {
			return err
		}
		utils.Infof("✅ 浏览器已就绪: %s", path)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reviewcrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 请求头参数
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "自定义请求头,格式: 'Name: Value',可多次指定")
	rootCmd.Flags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 输入参数
	rootCmd.Flags().StringSliceVarP(&targetURLs, "url", "u", []string{}, "评论列表页URL,可多次指定")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", `JSON输入文件: {"urls":[{"url":"..."}],"max_pages":3}`)

	// 爬取参数
	rootCmd.Flags().IntVarP(&maxPages, "max-pages", "p", 0, "每个URL最多处理的页数 (默认读取配置)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().BoolVar(&noSandbox, "no-sandbox", false, "禁用浏览器沙箱 (容器中运行时需要)")
	rootCmd.Flags().BoolVar(&ignoreCertErrors, "ignore-cert-errors", false, "忽略证书错误 (使用抓包代理时需要)")
	rootCmd.Flags().StringVar(&browserBin, "browser-bin", "", "浏览器可执行文件路径")
	rootCmd.Flags().StringVar(&proxy, "proxy", "", "代理服务器,如 localhost:8080")
	rootCmd.Flags().StringVar(&captchaPolicy, "captcha-policy", "", "检测到验证码时的策略 (log|abort)")
	rootCmd.Flags().StringVar(&onTransitionTimeout, "on-transition-timeout", "", "翻页等待超时时的策略 (abort|continue)")

	// 输出参数
	rootCmd.Flags().StringVarP(&datasetDir, "output", "o", "", "数据集目录")
	rootCmd.Flags().StringVar(&reportsDir, "reports-dir", "", "运行报告目录")
	rootCmd.Flags().BoolVar(&toStdout, "stdout", false, "同时以JSON Lines输出记录到stdout")

	// 导出参数
	exportCmd.Flags().StringVarP(&exportDataset, "dataset", "d", "", "数据集目录 (默认读取配置)")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", ".", "CSV输出目录")

	browserCmd.AddCommand(browserInstallCmd)
	rootCmd.AddCommand(exportCmd, browserCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
