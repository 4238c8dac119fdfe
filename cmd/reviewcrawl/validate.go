package main

import (
	"fmt"

	"github.com/RecoveryAshes/reviewcrawl/internal/models"
)

// ValidateFlags 验证命令行标志
// 空字符串表示未指定,由配置文件决定
func ValidateFlags(
	targetURLs []string,
	maxPages int,
	captchaPolicy string,
	onTransitionTimeout string,
) error {
	for _, u := range targetURLs {
		if err := models.ValidateURL(u); err != nil {
			return fmt.Errorf("无效的目标URL %s: %w", u, err)
		}
	}

	if maxPages < 0 {
		return fmt.Errorf("最大页数不能为负数,当前值: %d", maxPages)
	}

	switch models.CaptchaPolicy(captchaPolicy) {
	case "", models.CaptchaLogOnly, models.CaptchaAbort:
	default:
		return fmt.Errorf("无效的验证码策略: %s (有效值: log, abort)", captchaPolicy)
	}

	switch models.TransitionPolicy(onTransitionTimeout) {
	case "", models.TransitionAbort, models.TransitionContinue:
	default:
		return fmt.Errorf("无效的翻页超时策略: %s (有效值: abort, continue)", onTransitionTimeout)
	}

	return nil
}
