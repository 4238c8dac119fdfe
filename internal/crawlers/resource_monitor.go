package crawlers

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// ErrInsufficientMemory 可用内存不足以启动浏览器
var ErrInsufficientMemory = errors.New("可用内存不足")

// MemoryStatus 内存状态信息
type MemoryStatus struct {
	TotalMB     uint64
	AvailableMB uint64
	UsedPercent float64
}

// memoryReader 便于测试替换
var memoryReader = func() (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemory()
}

// ReadMemoryStatus 读取系统内存状态
func ReadMemoryStatus() (MemoryStatus, error) {
	vm, err := memoryReader()
	if err != nil {
		return MemoryStatus{}, fmt.Errorf("获取系统内存失败: %w", err)
	}
	return MemoryStatus{
		TotalMB:     vm.Total / 1024 / 1024,
		AvailableMB: vm.Available / 1024 / 1024,
		UsedPercent: vm.UsedPercent,
	}, nil
}

// CheckBrowserHeadroom 启动浏览器前检查可用内存
// minFreeMB<=0 时不检查;读取内存失败只记警告,不阻止启动
func CheckBrowserHeadroom(minFreeMB int, opts ...Option) error {
	if minFreeMB <= 0 {
		return nil
	}
	log := buildOptions(opts).logger

	status, err := ReadMemoryStatus()
	if err != nil {
		log.Warn().Err(err).Msg("无法检查内存余量,继续启动浏览器")
		return nil
	}

	log.Debug().
		Uint64("available_mb", status.AvailableMB).
		Float64("used_percent", status.UsedPercent).
		Msg("系统内存状态")

	if status.AvailableMB < uint64(minFreeMB) {
		return fmt.Errorf("%w: 可用 %dMB, 需要 %dMB", ErrInsufficientMemory, status.AvailableMB, minFreeMB)
	}
	return nil
}
