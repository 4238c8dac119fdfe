// Package crawlers 实现评论列表页的浏览器抓取
//
// # 组件
//
//   - Extractor: 从单条评论HTML片段提取扁平记录,缺失字段回退为占位值
//   - ScrollDriver: 分步滚动到页面底部,触发懒加载
//   - PageScanner: 等待列表容器,滚动,逐条提取并立即输出
//   - Paginator: 逐页扫描的状态机,页面级失败只体现为终止状态
//   - RequestQueue: 按顺序、去重的输入URL队列
//
// 浏览器能力通过Browser接口注入,RodBrowser是基于go-rod的实现。
//
// 使用示例:
//
//	b, err := LaunchBrowser(browserConfig, headers)
//	if err != nil { /* 处理错误 */ }
//	defer b.Quit()
//
//	p, err := NewPaginator(crawlConfig, sink)
//	result := p.Run(b, "https://www.tripadvisor.com/Hotel_Review-...")
//
// # 终止状态
//
//   - done: 下一页按钮存在但已禁用
//   - failed_page_cap: 达到 max_pages
//   - failed_no_next: 没有下一页按钮,或翻页等待超时(abort策略)
//   - failed_page: 评论列表容器等待超时
//   - failed_captcha: 检测到验证码(abort策略)
//
// 所有状态都只结束当前URL,不影响队列中后续URL。
package crawlers
