package crawlers

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/rs/zerolog"
)

const scriptPageYOffset = `() => window.pageYOffset`

// ScrollDriver 逐步向下滚动,触发懒加载内容
type ScrollDriver struct {
	config models.ScrollConfig
	sleep  func(time.Duration)
	log    zerolog.Logger
}

// NewScrollDriver 创建滚动驱动
func NewScrollDriver(config models.ScrollConfig, opts ...Option) *ScrollDriver {
	o := buildOptions(opts)
	return &ScrollDriver{config: config, sleep: o.sleep, log: o.logger}
}

// ScrollToBottom 滚动直到位置不再变化或达到循环上限,返回执行的轮数
//
// 每轮: 读取当前位置 → 滚动一个步长 → 等待渲染 → 再次读取位置,
// 两次读数相同即认为到底。最多执行 MaxLoops+1 轮。
// 只有浏览器执行脚本失败时才返回错误。
func (d *ScrollDriver) ScrollToBottom(b Browser) (int, error) {
	loopCount := 0
	iterations := 0

	for {
		iterations++

		current, err := d.pageYOffset(b)
		if err != nil {
			return iterations, err
		}

		script := fmt.Sprintf("() => window.scrollTo(0, %d)", current+d.config.Increment)
		if _, err := b.Eval(script); err != nil {
			return iterations, fmt.Errorf("滚动失败: %w", err)
		}

		d.sleep(d.config.Pause)

		after, err := d.pageYOffset(b)
		if err != nil {
			return iterations, err
		}

		if current == after {
			d.log.Debug().Int("offset", after).Int("iterations", iterations).Msg("已滚动到底部")
			break
		}

		if loopCount >= d.config.MaxLoops {
			d.log.Debug().Int("offset", after).Int("iterations", iterations).Msg("达到滚动循环上限")
			break
		}

		loopCount++
	}

	return iterations, nil
}

func (d *ScrollDriver) pageYOffset(b Browser) (int, error) {
	v, err := b.Eval(scriptPageYOffset)
	if err != nil {
		return 0, fmt.Errorf("读取滚动位置失败: %w", err)
	}
	return v.Int(), nil
}
