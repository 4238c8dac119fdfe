package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
)

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	want := models.DefaultCrawlConfig()
	if config.Crawl.MaxPages != want.MaxPages {
		t.Errorf("max_pages: 期望%d, 实际%d", want.MaxPages, config.Crawl.MaxPages)
	}
	if config.Crawl.ContainerTimeout != 30*time.Second {
		t.Errorf("container_timeout: 期望30s, 实际%v", config.Crawl.ContainerTimeout)
	}
	if config.Crawl.Scroll != want.Scroll {
		t.Errorf("scroll: 期望%+v, 实际%+v", want.Scroll, config.Crawl.Scroll)
	}
	if config.Crawl.Site != want.Site {
		t.Errorf("site: 期望%+v, 实际%+v", want.Site, config.Crawl.Site)
	}
	if config.Crawl.CaptchaPolicy != models.CaptchaLogOnly {
		t.Errorf("captcha_policy: 期望log, 实际%s", config.Crawl.CaptchaPolicy)
	}
	if !config.Browser.Headless {
		t.Error("默认应使用无头模式")
	}
	if config.Logging.Level != "debug" {
		t.Errorf("logging.level: 期望debug, 实际%s", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("默认配置应通过验证: %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	content := `
crawl:
  max_pages: 3
  container_timeout: 10s
  on_transition_timeout: continue
  captcha_policy: abort
  scroll:
    increment: 800
    pause: 500ms
browser:
  headless: false
  proxy: localhost:8080
  headers:
    Referer: https://www.tripadvisor.com/
output:
  dataset_dir: data
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if config.Crawl.MaxPages != 3 {
		t.Errorf("max_pages: 期望3, 实际%d", config.Crawl.MaxPages)
	}
	if config.Crawl.ContainerTimeout != 10*time.Second {
		t.Errorf("container_timeout: 期望10s, 实际%v", config.Crawl.ContainerTimeout)
	}
	if config.Crawl.OnTransitionTimeout != models.TransitionContinue {
		t.Errorf("on_transition_timeout: 期望continue, 实际%s", config.Crawl.OnTransitionTimeout)
	}
	if config.Crawl.CaptchaPolicy != models.CaptchaAbort {
		t.Errorf("captcha_policy: 期望abort, 实际%s", config.Crawl.CaptchaPolicy)
	}
	if config.Crawl.Scroll.Increment != 800 || config.Crawl.Scroll.Pause != 500*time.Millisecond {
		t.Errorf("scroll: 实际%+v", config.Crawl.Scroll)
	}
	if config.Crawl.Scroll.MaxLoops != 40 {
		t.Errorf("未设置的max_loops应保持默认值, 实际%d", config.Crawl.Scroll.MaxLoops)
	}
	if config.Browser.Headless || config.Browser.Proxy != "localhost:8080" {
		t.Errorf("browser: 实际%+v", config.Browser)
	}
	if len(config.Browser.Headers) != 1 {
		t.Errorf("期望1个配置头部, 实际%v", config.Browser.Headers)
	}
	if config.Output.DatasetDir != "data" {
		t.Errorf("dataset_dir: 期望data, 实际%s", config.Output.DatasetDir)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("REVIEWCRAWL_CRAWL_MAX_PAGES", "7")

	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("crawl:\n  max_pages: 3\n"), 0644)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if config.Crawl.MaxPages != 7 {
		t.Errorf("环境变量应覆盖配置文件, 实际%d", config.Crawl.MaxPages)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		var ce *models.ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("期望ConfigError, 实际%v", err)
		}
	})

	t.Run("YAML格式错误", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		os.WriteFile(path, []byte("crawl: [unclosed"), 0644)
		if _, err := LoadConfig(path); err == nil {
			t.Error("期望解析失败")
		}
	})
}

func TestConfig_MergeCLIFlags(t *testing.T) {
	config := &Config{Crawl: models.DefaultCrawlConfig()}
	config.Browser.Headless = true

	headless := false
	config.MergeCLIFlags(Overrides{
		MaxPages:      2,
		Headless:      &headless,
		Proxy:         "127.0.0.1:8080",
		CaptchaPolicy: "abort",
		DatasetDir:    "out",
	})

	if config.Crawl.MaxPages != 2 {
		t.Errorf("max_pages: 期望2, 实际%d", config.Crawl.MaxPages)
	}
	if config.Browser.Headless {
		t.Error("headless应被命令行关闭")
	}
	if config.Browser.Proxy != "127.0.0.1:8080" {
		t.Errorf("proxy: 实际%s", config.Browser.Proxy)
	}
	if config.Crawl.CaptchaPolicy != models.CaptchaAbort {
		t.Errorf("captcha_policy: 实际%s", config.Crawl.CaptchaPolicy)
	}
	if config.Output.DatasetDir != "out" {
		t.Errorf("dataset_dir: 实际%s", config.Output.DatasetDir)
	}

	// 零值不覆盖
	config.MergeCLIFlags(Overrides{})
	if config.Crawl.MaxPages != 2 || config.Browser.Proxy != "127.0.0.1:8080" {
		t.Error("未指定的参数不应覆盖配置")
	}
}

func TestConfig_Validate(t *testing.T) {
	config := &Config{Crawl: models.DefaultCrawlConfig()}
	config.Output.DatasetDir = "data"
	if err := config.Validate(); err != nil {
		t.Fatalf("期望通过验证: %v", err)
	}

	config.Output.DatasetDir = ""
	if err := config.Validate(); err == nil {
		t.Error("数据集目录为空时应失败")
	}

	config.Output.DatasetDir = "data"
	config.Crawl.CaptchaPolicy = "solve"
	if err := config.Validate(); err == nil {
		t.Error("无效验证码策略应失败")
	}
}
