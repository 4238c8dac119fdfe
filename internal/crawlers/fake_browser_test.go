package crawlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"github.com/rs/zerolog"
	"github.com/ysmood/gson"
)

// fakePage 模拟的一页评论
type fakePage struct {
	items             []string
	noContainer       bool
	captcha           bool
	next              string // "", "enabled", "disabled"
	transitionTimeout bool
	maxOffset         int
}

// fakeBrowser 按脚本回放页面的Browser实现
type fakeBrowser struct {
	pages    []fakePage
	current  int
	offset   int
	url      string
	navErr   error
	evalErr  error
	panicOn  string
	visited  []int
	clicks   int
	quitted  bool
	evalCall int
}

func newFakeBrowser(pages ...fakePage) *fakeBrowser {
	return &fakeBrowser{pages: pages}
}

func (f *fakeBrowser) page() fakePage {
	return f.pages[f.current]
}

func (f *fakeBrowser) Navigate(url string) error {
	if f.navErr != nil {
		return f.navErr
	}
	f.url = url
	f.current = 0
	f.offset = 0
	return nil
}

func (f *fakeBrowser) CurrentURL() (string, error) {
	return f.url, nil
}

func (f *fakeBrowser) Title() (string, error) {
	return fmt.Sprintf("page %d", f.current+1), nil
}

func (f *fakeBrowser) Eval(js string) (gson.JSON, error) {
	f.evalCall++
	if f.evalErr != nil {
		return gson.JSON{}, f.evalErr
	}
	if js == scriptPageYOffset {
		return gson.New(f.offset), nil
	}
	const prefix = "() => window.scrollTo(0, "
	if strings.HasPrefix(js, prefix) {
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(js, prefix), ")"))
		if err != nil {
			return gson.JSON{}, err
		}
		f.offset = n
		if limit := f.page().maxOffset; f.offset > limit {
			f.offset = limit
		}
		return gson.New(nil), nil
	}
	return gson.JSON{}, fmt.Errorf("未知脚本: %s", js)
}

func (f *fakeBrowser) FindAll(selector string) ([]Element, error) {
	if f.panicOn == "FindAll" {
		panic("连接已断开")
	}
	if selector != defaultSite().ItemSelector {
		return nil, nil
	}
	f.visited = append(f.visited, f.current)
	var out []Element
	for _, item := range f.page().items {
		out = append(out, &fakeElement{html: item})
	}
	return out, nil
}

func (f *fakeBrowser) FindOne(selector string) (Element, bool, error) {
	site := defaultSite()
	switch selector {
	case site.CaptchaSelector:
		return nil, f.page().captcha, nil
	case site.NextSelector:
		switch f.page().next {
		case "enabled":
			return &fakeElement{class: "nav next ui_button primary", onClick: f.advance}, true, nil
		case "disabled":
			return &fakeElement{class: "nav next ui_button primary disabled"}, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeBrowser) WaitPresent(selector string, timeout time.Duration) error {
	if f.page().noContainer {
		return fmt.Errorf("%w: %s", ErrElementWaitTimeout, selector)
	}
	return nil
}

func (f *fakeBrowser) WaitTextGone(text string, timeout time.Duration) error {
	if f.page().transitionTimeout {
		return fmt.Errorf("%w: %s", ErrElementWaitTimeout, text)
	}
	return nil
}

func (f *fakeBrowser) Quit() error {
	f.quitted = true
	return nil
}

func (f *fakeBrowser) advance() error {
	f.clicks++
	if f.current+1 < len(f.pages) {
		f.current++
		f.offset = 0
		f.url = fmt.Sprintf("https://www.tripadvisor.com/Hotel_Review-or%d", f.current*5)
	}
	return nil
}

type fakeElement struct {
	html    string
	class   string
	htmlErr error
	onClick func() error
}

func (e *fakeElement) OuterHTML() (string, error) {
	return e.html, e.htmlErr
}

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	if name == "class" && e.class != "" {
		return e.class, true, nil
	}
	return "", false, nil
}

func (e *fakeElement) Click() error {
	if e.onClick == nil {
		return errors.New("元素不可点击")
	}
	return e.onClick()
}

// recordSink 收集输出的记录
type recordSink struct {
	records []models.ReviewRecord
	failOn  int // 第n条(从1开始)输出失败
}

func (s *recordSink) Emit(record models.ReviewRecord) error {
	if s.failOn > 0 && len(s.records)+1 == s.failOn {
		s.failOn = 0
		return errors.New("写入失败")
	}
	s.records = append(s.records, record)
	return nil
}

func defaultSite() models.SiteConfig {
	return models.DefaultCrawlConfig().Site
}

func testConfig(maxPages int) models.CrawlConfig {
	config := models.DefaultCrawlConfig()
	config.MaxPages = maxPages
	config.Scroll.MaxLoops = 3
	return config
}

func testOptions() []Option {
	return []Option{
		WithSleep(func(time.Duration) {}),
		WithLogger(zerolog.New(io.Discard)),
	}
}

// reviewFragment 构造一条评论的HTML
func reviewFragment(id string) string {
	return fmt.Sprintf(`<div id="review_%[1]s" class="review-container">
  <div class="reviewSelector" data-reviewid="%[1]s">
    <span class="ui_bubble_rating bubble_50"></span>
    <span class="ratingDate" title="May 3, 2019">Reviewed 3 May 2019</span>
    <a id="rn%[1]s" href="/ShowUserReviews-g1-d2-r%[1]s-Hotel.html"><span class="noQuotes">Title %[1]s</span></a>
    <p class="partial_entry">Text %[1]s</p>
  </div>
</div>`, id)
}

func fragments(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = reviewFragment(fmt.Sprintf("%s%d", prefix, i+1))
	}
	return out
}
