package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/reviewcrawl/internal/models"
	"golang.org/x/net/html"
)

// 评论片段内各字段的选择器
const (
	selReviewID       = "[data-reviewid]"
	selTitle          = "span.noQuotes"
	selLink           = `a[id^="rn"]`
	selText           = "p.partial_entry"
	selDate           = "span.ratingDate"
	selOverallRating  = "span.ui_bubble_rating"
	selSubRatingEntry = ".rating-list .recommend-answer"
	selSubRatingLabel = "div.recommend-description"
	selSubRatingValue = "div.ui_bubble_rating"
)

// ratingTokenIndex 评分值编码在class列表的第二个token中,如 "ui_bubble_rating bubble_40"
const ratingTokenIndex = 1

// Extractor 字段提取器
// 从单条评论的HTML片段中提取扁平记录,任何字段缺失都回退为占位值
type Extractor struct {
	base *url.URL
}

// NewExtractor 创建字段提取器,baseURL用于把相对链接拼成绝对URL
func NewExtractor(baseURL string) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("站点根地址无效: %s", baseURL)
	}
	return &Extractor{base: base}, nil
}

// Extract 提取一条评论记录,不会失败
func (e *Extractor) Extract(fragment string) models.ReviewRecord {
	record := models.NewReviewRecord()

	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return record
	}
	doc := goquery.NewDocumentFromNode(root)

	if id, ok := doc.Find(selReviewID).First().Attr("data-reviewid"); ok {
		record[models.FieldReviewID] = id
	}

	if sel := doc.Find(selTitle).First(); sel.Length() > 0 {
		record[models.FieldTitle] = strings.TrimSpace(sel.Text())
	}

	if href, ok := doc.Find(selLink).First().Attr("href"); ok {
		if link, ok := e.resolve(href); ok {
			record[models.FieldLink] = link
		}
	}

	if sel := doc.Find(selText).First(); sel.Length() > 0 {
		record[models.FieldText] = strings.TrimSpace(sel.Text())
	}

	if date, ok := doc.Find(selDate).First().Attr("title"); ok {
		record[models.FieldDate] = date
	}

	if token, ok := classToken(doc.Find(selOverallRating).First(), ratingTokenIndex); ok {
		record[models.FieldRating] = token
	}

	doc.Find(selSubRatingEntry).Each(func(_ int, entry *goquery.Selection) {
		label := entry.Find(selSubRatingLabel).First()
		indicator := entry.Find(selSubRatingValue).First()
		if label.Length() == 0 || indicator.Length() == 0 {
			return
		}
		token, ok := classToken(indicator, ratingTokenIndex)
		if !ok {
			return
		}
		record[models.SubRatingKey(label.Text())] = token
	})

	return record
}

// resolve 相对链接转绝对URL
func (e *Extractor) resolve(href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return e.base.ResolveReference(ref).String(), true
}

// classToken 返回class列表中第index个token
func classToken(sel *goquery.Selection, index int) (string, bool) {
	class, ok := sel.Attr("class")
	if !ok {
		return "", false
	}
	tokens := strings.Fields(class)
	if index >= len(tokens) {
		return "", false
	}
	return tokens[index], true
}
