package crawlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/rs/zerolog"
)

// PageResult 单页扫描结果
type PageResult struct {
	URL             string
	Title           string
	Items           int  // 匹配到的评论条目数
	Emitted         int  // 成功输出的记录数
	Failed          int  // 提取或输出失败的条目数
	CaptchaDetected bool
}

// PageScanner 页面扫描器
// 等待评论列表出现,滚动加载后逐条提取并立即输出
type PageScanner struct {
	config    models.CrawlConfig
	extractor *Extractor
	scroller  *ScrollDriver
	sink      Sink
	sleep     func(time.Duration)
	log       zerolog.Logger
}

// NewPageScanner 创建页面扫描器
func NewPageScanner(config models.CrawlConfig, sink Sink, opts ...Option) (*PageScanner, error) {
	extractor, err := NewExtractor(config.Site.BaseURL)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, errors.New("记录输出端不能为空")
	}

	o := buildOptions(opts)
	return &PageScanner{
		config:    config,
		extractor: extractor,
		scroller:  NewScrollDriver(config.Scroll, opts...),
		sink:      sink,
		sleep:     o.sleep,
		log:       o.logger,
	}, nil
}

// ScanPage 扫描当前页
//
// 评论列表容器等待超时返回ErrElementWaitTimeout,此时不输出任何记录;
// 验证码在abort策略下返回ErrCaptchaDetected;其他错误来自浏览器本身。
// 单条记录的提取或输出失败只计入Failed,不影响同页其他条目。
func (s *PageScanner) ScanPage(b Browser) (PageResult, error) {
	var result PageResult

	if url, err := b.CurrentURL(); err == nil {
		result.URL = url
	}
	if title, err := b.Title(); err == nil {
		result.Title = title
	}

	captcha, err := s.checkCaptcha(b)
	if err != nil {
		return result, err
	}
	if captcha {
		result.CaptchaDetected = true
		s.log.Error().Str("url", result.URL).Msg("检测到验证码")
		if s.config.CaptchaPolicy == models.CaptchaAbort {
			return result, ErrCaptchaDetected
		}
	}

	if err := b.WaitPresent(s.config.Site.ContainerSelector, s.config.ContainerTimeout); err != nil {
		if errors.Is(err, ErrElementWaitTimeout) {
			s.log.Error().
				Str("url", result.URL).
				Str("selector", s.config.Site.ContainerSelector).
				Dur("timeout", s.config.ContainerTimeout).
				Msg("等待评论列表超时,跳过本页")
		}
		return result, err
	}

	s.sleep(s.config.PageSettle)

	if _, err := s.scroller.ScrollToBottom(b); err != nil {
		return result, err
	}

	items, err := b.FindAll(s.config.Site.ItemSelector)
	if err != nil {
		return result, fmt.Errorf("查找评论条目失败: %w", err)
	}
	result.Items = len(items)
	s.log.Info().Str("url", result.URL).Int("items", len(items)).Msg("找到评论条目")

	for i, item := range items {
		if err := s.emitItem(item); err != nil {
			result.Failed++
			s.log.Warn().Err(err).Int("index", i).Msg("评论条目处理失败")
			continue
		}
		result.Emitted++
	}

	return result, nil
}

func (s *PageScanner) checkCaptcha(b Browser) (bool, error) {
	if s.config.Site.CaptchaSelector == "" {
		return false, nil
	}
	_, found, err := b.FindOne(s.config.Site.CaptchaSelector)
	if err != nil {
		return false, fmt.Errorf("验证码检测失败: %w", err)
	}
	return found, nil
}

// emitItem 提取并输出单条记录,panic在此处截获
func (s *PageScanner) emitItem(item Element) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("处理评论条目时panic: %v", r)
		}
	}()

	fragment, err := item.OuterHTML()
	if err != nil {
		return fmt.Errorf("读取条目HTML失败: %w", err)
	}

	record := s.extractor.Extract(fragment)
	if err := s.sink.Emit(record); err != nil {
		return fmt.Errorf("输出记录失败: %w", err)
	}
	return nil
}
