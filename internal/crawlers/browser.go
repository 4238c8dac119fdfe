package crawlers

import (
	"errors"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/ysmood/gson"
)

// 错误类型定义
var (
	ErrElementWaitTimeout  = errors.New("等待页面元素超时")
	ErrCaptchaDetected     = errors.New("检测到验证码")
	ErrNextControlNotFound = errors.New("未找到下一页按钮")
	ErrBrowserCrashed      = errors.New("浏览器崩溃")
)

// Browser 分页控制所需的最小浏览器能力
// 查找类方法用 (值, 是否存在, error) 表达"未找到",error只用于浏览器本身的故障
type Browser interface {
	// Navigate 打开URL并等待load事件
	Navigate(url string) error

	// CurrentURL 当前页面URL
	CurrentURL() (string, error)

	// Title 当前页面标题
	Title() (string, error)

	// Eval 执行JS函数表达式,如 "() => window.pageYOffset"
	Eval(js string) (gson.JSON, error)

	// FindAll 返回所有匹配CSS选择器的元素,不等待
	FindAll(selector string) ([]Element, error)

	// FindOne 返回第一个匹配的元素,不等待
	FindOne(selector string) (Element, bool, error)

	// WaitPresent 等待元素出现,超时返回ErrElementWaitTimeout
	WaitPresent(selector string, timeout time.Duration) error

	// WaitTextGone 等待包含指定文本的元素消失或不可见,超时返回ErrElementWaitTimeout
	WaitTextGone(text string, timeout time.Duration) error

	// Quit 关闭浏览器并释放资源
	Quit() error
}

// Element 页面元素
type Element interface {
	// OuterHTML 元素自身及子树的HTML
	OuterHTML() (string, error)

	// Attribute 读取属性,属性不存在时返回false
	Attribute(name string) (string, bool, error)

	// Click 左键单击
	Click() error
}

// Sink 记录输出端
type Sink interface {
	Emit(record models.ReviewRecord) error
}

// SinkFunc 函数形式的Sink
type SinkFunc func(record models.ReviewRecord) error

// Emit 实现Sink接口
func (f SinkFunc) Emit(record models.ReviewRecord) error {
	return f(record)
}
