package crawlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
)

const startURL = "https://www.tripadvisor.com/Hotel_Review-g60763-d93450-Reviews-Hotel.html"

func newTestPaginator(t *testing.T, config models.CrawlConfig, sink Sink) *Paginator {
	t.Helper()
	p, err := NewPaginator(config, sink, testOptions()...)
	if err != nil {
		t.Fatalf("创建分页控制器失败: %v", err)
	}
	return p
}

// sitePages 构造n页,每页5条,最后一页的下一页按钮为last
func sitePages(n int, last string) []fakePage {
	pages := make([]fakePage, n)
	for i := range pages {
		pages[i] = fakePage{items: fragments(fmt.Sprintf("p%d-", i+1), 5), next: "enabled"}
	}
	pages[n-1].next = last
	return pages
}

func TestPaginator_SinglePageNoNext(t *testing.T) {
	sink := &recordSink{}
	p := newTestPaginator(t, testConfig(models.DefaultMaxPages), sink)
	b := newFakeBrowser(fakePage{items: fragments("a", 5)})

	result := p.Run(b, startURL)

	if len(sink.records) != 5 || result.Records != 5 {
		t.Errorf("期望5条记录, 实际sink=%d result=%d", len(sink.records), result.Records)
	}
	if result.State != models.StateNoNext {
		t.Errorf("期望状态%s, 实际%s", models.StateNoNext, result.State)
	}
	if result.PagesProcessed != 1 {
		t.Errorf("期望处理1页, 实际%d", result.PagesProcessed)
	}
	if result.Err != nil {
		t.Errorf("不应有错误: %v", result.Err)
	}
	if result.FinalURL != startURL {
		t.Errorf("期望最终URL %s, 实际%s", startURL, result.FinalURL)
	}
}

func TestPaginator_PageCap(t *testing.T) {
	sink := &recordSink{}
	p := newTestPaginator(t, testConfig(2), sink)
	b := newFakeBrowser(sitePages(5, "enabled")...)

	result := p.Run(b, startURL)

	if result.PagesProcessed != 2 {
		t.Errorf("期望处理2页, 实际%d", result.PagesProcessed)
	}
	if result.State != models.StatePageCap {
		t.Errorf("期望状态%s, 实际%s", models.StatePageCap, result.State)
	}
	if len(b.visited) != 2 || b.visited[0] != 0 || b.visited[1] != 1 {
		t.Errorf("期望扫描第1、2页, 实际%v", b.visited)
	}
	if b.clicks != 1 {
		t.Errorf("达到上限后不应再点击下一页, 点击%d次", b.clicks)
	}
	if len(sink.records) != 10 {
		t.Errorf("期望10条记录, 实际%d", len(sink.records))
	}
}

// 处理页数恰好为 min(可用页数, 最大页数)
func TestPaginator_CapEnforcement(t *testing.T) {
	tests := []struct {
		name      string
		available int
		maxPages  int
		last      string
		wantState models.RunState
	}{
		{"可用页少于上限_按钮消失", 3, 5, "", models.StateNoNext},
		{"可用页少于上限_按钮禁用", 3, 5, "disabled", models.StateDone},
		{"可用页等于上限", 4, 4, "disabled", models.StatePageCap},
		{"可用页多于上限", 5, 3, "enabled", models.StatePageCap},
		{"上限为1", 5, 1, "enabled", models.StatePageCap},
		{"单页禁用按钮", 1, 10, "disabled", models.StateDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPaginator(t, testConfig(tt.maxPages), &recordSink{})
			b := newFakeBrowser(sitePages(tt.available, tt.last)...)

			result := p.Run(b, startURL)

			want := tt.available
			if tt.maxPages < want {
				want = tt.maxPages
			}
			if result.PagesProcessed != want {
				t.Errorf("期望处理%d页, 实际%d", want, result.PagesProcessed)
			}
			if len(b.visited) > tt.maxPages {
				t.Errorf("扫描页数%d超过上限%d", len(b.visited), tt.maxPages)
			}
			if result.State != tt.wantState {
				t.Errorf("期望状态%s, 实际%s", tt.wantState, result.State)
			}
			if result.Records != want*5 {
				t.Errorf("期望%d条记录, 实际%d", want*5, result.Records)
			}
		})
	}
}

func TestPaginator_RecordOrder(t *testing.T) {
	sink := &recordSink{}
	p := newTestPaginator(t, testConfig(10), sink)
	b := newFakeBrowser(sitePages(2, "")...)

	p.Run(b, startURL)

	var want []string
	for page := 1; page <= 2; page++ {
		for item := 1; item <= 5; item++ {
			want = append(want, fmt.Sprintf("p%d-%d", page, item))
		}
	}
	if len(sink.records) != len(want) {
		t.Fatalf("期望%d条记录, 实际%d", len(want), len(sink.records))
	}
	for i, id := range want {
		if sink.records[i].ID() != id {
			t.Errorf("第%d条: 期望%s, 实际%s", i+1, id, sink.records[i].ID())
		}
	}
}

func TestPaginator_ContainerTimeout(t *testing.T) {
	sink := &recordSink{}
	p := newTestPaginator(t, testConfig(10), sink)

	failing := newFakeBrowser(fakePage{items: fragments("x", 5), noContainer: true, next: "enabled"})
	result := p.Run(failing, startURL)

	if len(sink.records) != 0 {
		t.Errorf("容器超时不应输出记录, 实际%d条", len(sink.records))
	}
	if result.State != models.StatePageFailed {
		t.Errorf("期望状态%s, 实际%s", models.StatePageFailed, result.State)
	}
	if result.Err != nil {
		t.Errorf("页面级失败不应作为错误返回: %v", result.Err)
	}
	if failing.clicks != 0 {
		t.Error("页面失败后不应继续翻页")
	}

	// 下一个URL照常处理
	healthy := newFakeBrowser(fakePage{items: fragments("y", 5)})
	next := p.Run(healthy, startURL+"?next")
	if next.Records != 5 || len(sink.records) != 5 {
		t.Errorf("后续URL应正常处理, 实际%d条", next.Records)
	}
}

func TestPaginator_TransitionTimeout(t *testing.T) {
	tests := []struct {
		name      string
		policy    models.TransitionPolicy
		wantState models.RunState
		wantPages int
	}{
		{"abort策略视同没有下一页", models.TransitionAbort, models.StateNoNext, 1},
		{"continue策略继续扫描", models.TransitionContinue, models.StateNoNext, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(10)
			config.OnTransitionTimeout = tt.policy
			p := newTestPaginator(t, config, &recordSink{})

			pages := sitePages(2, "")
			pages[1].transitionTimeout = true
			b := newFakeBrowser(pages...)

			result := p.Run(b, startURL)

			if result.State != tt.wantState {
				t.Errorf("期望状态%s, 实际%s", tt.wantState, result.State)
			}
			if result.PagesProcessed != tt.wantPages {
				t.Errorf("期望处理%d页, 实际%d", tt.wantPages, result.PagesProcessed)
			}
			if result.Err != nil {
				t.Errorf("翻页超时不应作为错误返回: %v", result.Err)
			}
		})
	}
}

func TestPaginator_CaptchaAbort(t *testing.T) {
	config := testConfig(10)
	config.CaptchaPolicy = models.CaptchaAbort
	p := newTestPaginator(t, config, &recordSink{})
	b := newFakeBrowser(fakePage{items: fragments("c", 5), captcha: true, next: "enabled"})

	result := p.Run(b, startURL)

	if result.State != models.StateCaptcha {
		t.Errorf("期望状态%s, 实际%s", models.StateCaptcha, result.State)
	}
	if result.CaptchaHits != 1 || result.Records != 0 {
		t.Errorf("统计不正确: %+v", result)
	}
}

func TestPaginator_InfraFailures(t *testing.T) {
	t.Run("打开起始URL失败", func(t *testing.T) {
		p := newTestPaginator(t, testConfig(10), &recordSink{})
		b := newFakeBrowser(fakePage{items: fragments("n", 5)})
		b.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

		result := p.Run(b, startURL)

		if result.Err == nil {
			t.Fatal("期望记录错误")
		}
		if result.PagesProcessed != 0 {
			t.Errorf("不应处理任何页面, 实际%d", result.PagesProcessed)
		}
		if !result.State.IsTerminal() {
			t.Errorf("应以终止状态结束, 实际%s", result.State)
		}
	})

	t.Run("浏览器panic", func(t *testing.T) {
		p := newTestPaginator(t, testConfig(10), &recordSink{})
		b := newFakeBrowser(fakePage{items: fragments("n", 5)})
		b.panicOn = "FindAll"

		result := p.Run(b, startURL)

		if !errors.Is(result.Err, ErrBrowserCrashed) {
			t.Errorf("期望ErrBrowserCrashed, 实际%v", result.Err)
		}
		if result.State != models.StatePageFailed {
			t.Errorf("panic后状态应为%s, 实际%s", models.StatePageFailed, result.State)
		}
	})
}

func TestNewPaginator_InvalidConfig(t *testing.T) {
	config := testConfig(0)
	if _, err := NewPaginator(config, &recordSink{}); err == nil {
		t.Error("max_pages为0时应返回错误")
	}
}
