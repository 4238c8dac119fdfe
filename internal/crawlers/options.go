package crawlers

import (
	"time"

	"github.com/RecoveryAshes/reviewcrawl/internal/utils"
	"github.com/rs/zerolog"
)

// Option 组件可选项
type Option func(*options)

type options struct {
	sleep  func(time.Duration)
	logger zerolog.Logger
}

// WithSleep 替换等待函数(默认time.Sleep)
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

// WithLogger 使用指定日志器(默认utils.Logger)
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{
		sleep:  time.Sleep,
		logger: utils.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
