package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/RecoveryAshes/reviewcrawl/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// clickTimeout 单击操作的超时(元素需要可见且可交互)
const clickTimeout = 10 * time.Second

// textGoneScript 判断包含文本的元素是否已消失或不可见
// 与 //*[contains(text(), '...')] 的可见性判断等价
const textGoneScript = `(text) => {
	const literal = text.indexOf("'") === -1 ? "'" + text + "'" : '"' + text + '"';
	const node = document.evaluate("//*[contains(text(), " + literal + ")]", document, null,
		XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!node) {
		return true;
	}
	const style = window.getComputedStyle(node);
	return style.display === 'none' || style.visibility === 'hidden' || node.getClientRects().length === 0;
}`

// RodBrowser 基于go-rod的Browser实现,一个浏览器进程对应一个标签页
type RodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// LaunchBrowser 启动浏览器并打开一个标签页
// headers为每个请求附加的HTTP头部,可以为空
func LaunchBrowser(config models.BrowserConfig, headers http.Header) (*RodBrowser, error) {
	l := launcher.New().Headless(config.Headless)

	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}
	if config.NoSandbox {
		l = l.NoSandbox(true)
	}
	if config.IgnoreCertErrors {
		l = l.Set("ignore-certificate-errors").Set("ignore-ssl-errors")
		utils.Debugf("浏览器启动参数: --ignore-certificate-errors --ignore-ssl-errors")
	}
	if config.Proxy != "" {
		l = l.Proxy(config.Proxy)
		utils.Infof("使用代理服务器: %s", config.Proxy)
	}
	l = l.Set("disable-dev-shm-usage")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	rb := &RodBrowser{launcher: l, browser: browser, page: page}
	if err := rb.applyHeaders(headers); err != nil {
		_ = rb.Quit()
		return nil, err
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return rb, nil
}

// applyHeaders User-Agent单独覆盖,其余作为附加头部
func (rb *RodBrowser) applyHeaders(headers http.Header) error {
	if len(headers) == 0 {
		return nil
	}

	dict := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		if http.CanonicalHeaderKey(name) == "User-Agent" {
			err := rb.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: values[0]})
			if err != nil {
				return fmt.Errorf("设置User-Agent失败: %w", err)
			}
			continue
		}
		dict = append(dict, name, values[0])
	}

	if len(dict) > 0 {
		if _, err := rb.page.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("设置HTTP头部失败: %w", err)
		}
	}
	return nil
}

// Navigate 实现Browser接口
func (rb *RodBrowser) Navigate(url string) error {
	if err := rb.page.Navigate(url); err != nil {
		return fmt.Errorf("导航失败 [%s]: %w", url, err)
	}
	if err := rb.page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败 [%s]: %w", url, err)
	}
	return nil
}

// CurrentURL 实现Browser接口
func (rb *RodBrowser) CurrentURL() (string, error) {
	info, err := rb.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Title 实现Browser接口
func (rb *RodBrowser) Title() (string, error) {
	info, err := rb.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// Eval 实现Browser接口
func (rb *RodBrowser) Eval(js string) (gson.JSON, error) {
	res, err := rb.page.Eval(js)
	if err != nil {
		return gson.JSON{}, fmt.Errorf("执行脚本失败: %w", err)
	}
	return res.Value, nil
}

// FindAll 实现Browser接口
func (rb *RodBrowser) FindAll(selector string) ([]Element, error) {
	els, err := rb.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("查找元素失败 [%s]: %w", selector, err)
	}
	result := make([]Element, 0, len(els))
	for _, el := range els {
		result = append(result, &rodElement{el: el})
	}
	return result, nil
}

// FindOne 实现Browser接口
func (rb *RodBrowser) FindOne(selector string) (Element, bool, error) {
	has, el, err := rb.page.Has(selector)
	if err != nil {
		return nil, false, fmt.Errorf("查找元素失败 [%s]: %w", selector, err)
	}
	if !has {
		return nil, false, nil
	}
	return &rodElement{el: el}, true, nil
}

// WaitPresent 实现Browser接口
func (rb *RodBrowser) WaitPresent(selector string, timeout time.Duration) error {
	page := rb.page.Timeout(timeout)
	defer page.CancelTimeout()

	_, err := page.Element(selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s (%s)", ErrElementWaitTimeout, selector, timeout)
		}
		return fmt.Errorf("等待元素失败 [%s]: %w", selector, err)
	}
	return nil
}

// WaitTextGone 实现Browser接口
func (rb *RodBrowser) WaitTextGone(text string, timeout time.Duration) error {
	page := rb.page.Timeout(timeout)
	defer page.CancelTimeout()

	err := page.Wait(rod.Eval(textGoneScript, text))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %q (%s)", ErrElementWaitTimeout, text, timeout)
		}
		return fmt.Errorf("等待文本消失失败 [%s]: %w", text, err)
	}
	return nil
}

// Quit 实现Browser接口
func (rb *RodBrowser) Quit() error {
	var err error
	if rb.browser != nil {
		err = rb.browser.Close()
	}
	if rb.launcher != nil {
		rb.launcher.Kill()
		rb.launcher.Cleanup()
	}
	utils.Debugf("浏览器已关闭")
	return err
}

// InstallBrowser 下载launcher管理的Chromium,返回可执行文件路径
func InstallBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("下载浏览器失败: %w", err)
	}
	return path, nil
}

// rodElement Element的go-rod实现
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) OuterHTML() (string, error) {
	return e.el.HTML()
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	value, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e *rodElement) Click() error {
	el := e.el.Timeout(clickTimeout)
	defer el.CancelTimeout()
	return el.Click(proto.InputMouseButtonLeft, 1)
}
