package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/RecoveryAshes/reviewcrawl/internal/utils"
	"github.com/spf13/viper"
)

// envPrefix 环境变量前缀,如 REVIEWCRAWL_CRAWL_MAX_PAGES
const envPrefix = "REVIEWCRAWL"

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig   `mapstructure:"crawl"`
	Browser models.BrowserConfig `mapstructure:"browser"`
	Logging LoggingConfig        `mapstructure:"logging"`
	Output  OutputConfig         `mapstructure:"output"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	DatasetDir string `mapstructure:"dataset_dir"` // 记录文件目录
	ReportsDir string `mapstructure:"reports_dir"` // 运行报告目录
	Stdout     bool   `mapstructure:"stdout"`      // 同时以JSON Lines输出到stdout
}

// LoadConfig 加载配置文件
// configPath为空时依次搜索 ./configs、当前目录、~/.reviewcrawl,找不到配置文件时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".reviewcrawl"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
		utils.Debug("未找到配置文件,使用默认配置")
	} else {
		utils.Debugf("已加载配置文件: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置失败: %w", err)}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	crawl := models.DefaultCrawlConfig()

	// 爬取配置默认值
	v.SetDefault("crawl.max_pages", crawl.MaxPages)
	v.SetDefault("crawl.start_settle", crawl.StartSettle)
	v.SetDefault("crawl.page_settle", crawl.PageSettle)
	v.SetDefault("crawl.container_timeout", crawl.ContainerTimeout)
	v.SetDefault("crawl.transition_timeout", crawl.TransitionTimeout)
	v.SetDefault("crawl.on_transition_timeout", string(crawl.OnTransitionTimeout))
	v.SetDefault("crawl.captcha_policy", string(crawl.CaptchaPolicy))
	v.SetDefault("crawl.batch_delay", crawl.BatchDelay)
	v.SetDefault("crawl.continue_on_error", crawl.ContinueOnError)

	v.SetDefault("crawl.scroll.increment", crawl.Scroll.Increment)
	v.SetDefault("crawl.scroll.max_loops", crawl.Scroll.MaxLoops)
	v.SetDefault("crawl.scroll.pause", crawl.Scroll.Pause)

	v.SetDefault("crawl.site.base_url", crawl.Site.BaseURL)
	v.SetDefault("crawl.site.container_selector", crawl.Site.ContainerSelector)
	v.SetDefault("crawl.site.item_selector", crawl.Site.ItemSelector)
	v.SetDefault("crawl.site.next_selector", crawl.Site.NextSelector)
	v.SetDefault("crawl.site.captcha_selector", crawl.Site.CaptchaSelector)
	v.SetDefault("crawl.site.updating_text", crawl.Site.UpdatingText)

	// 浏览器配置默认值
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.proxy", "")
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.ignore_cert_errors", false)
	v.SetDefault("browser.min_free_memory_mb", 300)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.dataset_dir", filepath.Join("storage", "datasets", "default"))
	v.SetDefault("output.reports_dir", "reports")
	v.SetDefault("output.stdout", false)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	if c.Output.DatasetDir == "" {
		return fmt.Errorf("数据集目录不能为空")
	}
	if c.Browser.MinFreeMemoryMB < 0 {
		return fmt.Errorf("最小可用内存不能为负数")
	}
	return nil
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// Overrides 命令行覆盖项,零值表示未指定
type Overrides struct {
	MaxPages            int
	Headless            *bool
	NoSandbox           *bool
	IgnoreCertErrors    *bool
	BrowserBin          string
	Proxy               string
	CaptchaPolicy       string
	OnTransitionTimeout string
	DatasetDir          string
	ReportsDir          string
	Stdout              *bool
	LogLevel            string
}

// MergeCLIFlags 合并命令行参数到配置,命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(o Overrides) {
	if o.MaxPages > 0 {
		c.Crawl.MaxPages = o.MaxPages
	}
	if o.Headless != nil {
		c.Browser.Headless = *o.Headless
	}
	if o.NoSandbox != nil {
		c.Browser.NoSandbox = *o.NoSandbox
	}
	if o.IgnoreCertErrors != nil {
		c.Browser.IgnoreCertErrors = *o.IgnoreCertErrors
	}
	if o.BrowserBin != "" {
		c.Browser.Bin = o.BrowserBin
	}
	if o.Proxy != "" {
		c.Browser.Proxy = o.Proxy
	}
	if o.CaptchaPolicy != "" {
		c.Crawl.CaptchaPolicy = models.CaptchaPolicy(o.CaptchaPolicy)
	}
	if o.OnTransitionTimeout != "" {
		c.Crawl.OnTransitionTimeout = models.TransitionPolicy(o.OnTransitionTimeout)
	}
	if o.DatasetDir != "" {
		c.Output.DatasetDir = o.DatasetDir
	}
	if o.ReportsDir != "" {
		c.Output.ReportsDir = o.ReportsDir
	}
	if o.Stdout != nil {
		c.Output.Stdout = *o.Stdout
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
}
