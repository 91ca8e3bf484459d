package provider

import "time"

// Observer 把“每次 provider 尝试 / 最终结果”从 Chain 中解耦出来（metrics 等）。
//
// 约束：
// - Chain 只负责发事件，不关心如何呈现。
// - 实现必须并发安全：多个请求会同时调用。
type Observer interface {
	OnAttempt(a Attempt)
	OnDone(providerUsed string, err error, dur time.Duration)
}

// Observers 把多个 Observer 串成一个（按顺序调用，nil 会被跳过）。
type Observers []Observer

func (obs Observers) OnAttempt(a Attempt) {
	for _, o := range obs {
		if o != nil {
			o.OnAttempt(a)
		}
	}
}

func (obs Observers) OnDone(providerUsed string, err error, dur time.Duration) {
	for _, o := range obs {
		if o != nil {
			o.OnDone(providerUsed, err, dur)
		}
	}
}
