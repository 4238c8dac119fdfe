package crawlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/rs/zerolog"
)

// RunResult 单个输入URL的运行结果
type RunResult struct {
	State          models.RunState
	PagesProcessed int
	Records        int
	FailedItems    int
	CaptchaHits    int
	FinalURL       string
	Err            error // 仅记录基础设施故障(导航失败、浏览器崩溃等)
}

// Paginator 分页控制器
// 从起始URL开始逐页扫描,直到下一页按钮消失、达到页数上限或出现页面级失败
type Paginator struct {
	config  models.CrawlConfig
	scanner *PageScanner
	scroll  *ScrollDriver
	sleep   func(time.Duration)
	log     zerolog.Logger
}

// NewPaginator 创建分页控制器
func NewPaginator(config models.CrawlConfig, sink Sink, opts ...Option) (*Paginator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	scanner, err := NewPageScanner(config, sink, opts...)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	return &Paginator{
		config:  config,
		scanner: scanner,
		scroll:  NewScrollDriver(config.Scroll, opts...),
		sleep:   o.sleep,
		log:     o.logger,
	}, nil
}

// Run 执行一次完整的分页抓取
// 页面级失败只体现在终止状态上,不会返回错误,也不会panic
func (p *Paginator) Run(b Browser, startURL string) (result RunResult) {
	state := models.PaginationState{MaxPages: p.config.MaxPages, KeepGoing: true}
	result.State = models.StateLoadingStart

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("%w: %v", ErrBrowserCrashed, r)
			p.log.Error().Err(result.Err).Str("state", string(result.State)).Msg("分页过程中发生panic")
			result.State = models.StatePageFailed
		}
		if url, err := b.CurrentURL(); err == nil {
			result.FinalURL = url
		}
	}()

	for state.KeepGoing {
		switch result.State {
		case models.StateLoadingStart:
			p.log.Info().Str("url", startURL).Int("max_pages", state.MaxPages).Msg("开始处理URL")
			if err := b.Navigate(startURL); err != nil {
				result.Err = fmt.Errorf("打开起始URL失败: %w", err)
				p.log.Error().Err(err).Str("url", startURL).Msg("打开起始URL失败")
				result.State = models.StatePageFailed
				state.KeepGoing = false
				continue
			}
			p.sleep(p.config.StartSettle)
			result.State = models.StateScanning

		case models.StateScanning:
			page, err := p.scanner.ScanPage(b)
			state.PagesProcessed++
			result.PagesProcessed = state.PagesProcessed
			result.Records += page.Emitted
			result.FailedItems += page.Failed
			if page.CaptchaDetected {
				result.CaptchaHits++
			}

			if err != nil {
				result.State = p.pageFailureState(err, &result)
				continue
			}

			p.log.Info().
				Int("page", state.PagesProcessed).
				Int("items", page.Items).
				Int("emitted", page.Emitted).
				Msg("页面扫描完成")

			if state.PagesProcessed >= state.MaxPages {
				p.log.Info().Int("max_pages", state.MaxPages).Msg("达到最大页数,停止翻页")
				result.State = models.StatePageCap
				continue
			}
			result.State = models.StateSeekingNext

		case models.StateSeekingNext:
			result.State = p.seekNext(b, &result)

		case models.StateTransitioning:
			err := b.WaitTextGone(p.config.Site.UpdatingText, p.config.TransitionTimeout)
			switch {
			case err == nil:
				result.State = models.StateScanning
			case errors.Is(err, ErrElementWaitTimeout):
				if p.config.OnTransitionTimeout == models.TransitionContinue {
					p.log.Warn().Dur("timeout", p.config.TransitionTimeout).Msg("等待列表刷新超时,继续扫描")
					result.State = models.StateScanning
				} else {
					p.log.Error().Dur("timeout", p.config.TransitionTimeout).Msg("等待列表刷新超时,停止翻页")
					result.State = models.StateNoNext
				}
			default:
				result.Err = fmt.Errorf("等待翻页失败: %w", err)
				result.State = models.StateNoNext
			}

		default:
			state.KeepGoing = false
			continue
		}

		if result.State.IsTerminal() {
			state.KeepGoing = false
		}
	}

	p.log.Info().
		Str("state", string(result.State)).
		Int("pages", result.PagesProcessed).
		Int("records", result.Records).
		Msg("URL处理结束")
	return result
}

// pageFailureState 把扫描错误转换为终止状态
func (p *Paginator) pageFailureState(err error, result *RunResult) models.RunState {
	switch {
	case errors.Is(err, ErrElementWaitTimeout):
		return models.StatePageFailed
	case errors.Is(err, ErrCaptchaDetected):
		p.log.Error().Msg("验证码策略为abort,停止处理当前URL")
		return models.StateCaptcha
	default:
		result.Err = err
		p.log.Error().Err(err).Msg("页面扫描失败")
		return models.StatePageFailed
	}
}

// seekNext 滚动到底部后查找并点击下一页按钮
func (p *Paginator) seekNext(b Browser, result *RunResult) models.RunState {
	if _, err := p.scroll.ScrollToBottom(b); err != nil {
		result.Err = err
		p.log.Error().Err(err).Msg("查找下一页前滚动失败")
		return models.StateNoNext
	}

	next, found, err := b.FindOne(p.config.Site.NextSelector)
	if err != nil {
		result.Err = fmt.Errorf("查找下一页按钮失败: %w", err)
		return models.StateNoNext
	}
	if !found {
		p.log.Info().Err(ErrNextControlNotFound).Msg("没有下一页,停止翻页")
		return models.StateNoNext
	}

	class, _, err := next.Attribute("class")
	if err != nil {
		result.Err = fmt.Errorf("读取下一页按钮属性失败: %w", err)
		return models.StateNoNext
	}
	if hasClass(class, "disabled") {
		p.log.Info().Msg("下一页按钮已禁用,已到最后一页")
		return models.StateDone
	}

	if err := next.Click(); err != nil {
		result.Err = fmt.Errorf("点击下一页失败: %w", err)
		p.log.Error().Err(err).Msg("点击下一页失败")
		return models.StateNoNext
	}
	return models.StateTransitioning
}

func hasClass(class, name string) bool {
	for _, token := range strings.Fields(class) {
		if token == name {
			return true
		}
	}
	return false
}
