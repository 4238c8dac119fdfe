package models

import (
	"sort"
	"strings"
)

// 评论记录字段名
const (
	FieldReviewID = "review_id"
	FieldTitle    = "title"
	FieldLink     = "link"
	FieldText     = "text"
	FieldDate     = "date"
	FieldRating   = "rating"

	// SubRatingPrefix 分项评分键前缀,如 rating_Value_for_money
	SubRatingPrefix = "rating_"
)

// 字段缺失时的占位值
const (
	ReviewIDNotFound = "Review ID Not Found"
	TitleNotFound    = "Title Not Found"
	LinkNotFound     = "Link Not Found"
	TextNotFound     = "Text Not Found"
	DateNotFound     = "Date Not Found"
	RatingNotFound   = "Overall Rating Not Found"
)

// CoreFields 每条记录必定包含的字段,按输出顺序排列
var CoreFields = []string{
	FieldReviewID,
	FieldTitle,
	FieldLink,
	FieldText,
	FieldDate,
	FieldRating,
}

// ReviewRecord 单条评论的扁平键值记录
// 核心字段总是存在(缺失时为占位值),rating_* 键数量不定
type ReviewRecord map[string]string

// NewReviewRecord 创建所有核心字段均为占位值的记录
func NewReviewRecord() ReviewRecord {
	return ReviewRecord{
		FieldReviewID: ReviewIDNotFound,
		FieldTitle:    TitleNotFound,
		FieldLink:     LinkNotFound,
		FieldText:     TextNotFound,
		FieldDate:     DateNotFound,
		FieldRating:   RatingNotFound,
	}
}

// ID 返回记录标识(review_id)
func (r ReviewRecord) ID() string {
	return r[FieldReviewID]
}

// SubRatings 返回所有分项评分
func (r ReviewRecord) SubRatings() map[string]string {
	result := make(map[string]string)
	for key, value := range r {
		if strings.HasPrefix(key, SubRatingPrefix) {
			result[key] = value
		}
	}
	return result
}

// SubRatingKey 由分项描述生成记录键: 空格替换为下划线并加前缀
func SubRatingKey(label string) string {
	return SubRatingPrefix + strings.ReplaceAll(label, " ", "_")
}

// OrderedKeys 返回稳定的键顺序: 核心字段在前,其余键按字典序
func (r ReviewRecord) OrderedKeys() []string {
	keys := make([]string, 0, len(r))
	extra := make([]string, 0)
	seen := make(map[string]bool, len(CoreFields))

	for _, field := range CoreFields {
		if _, ok := r[field]; ok {
			keys = append(keys, field)
			seen[field] = true
		}
	}
	for key := range r {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)

	return append(keys, extra...)
}
