package arena

import "time"

// TicksPerSecond 默认世界推进频率（20 TPS）
const TicksPerSecond = 20

// DefaultTickInterval 50ms
var DefaultTickInterval = time.Duration(1000/TicksPerSecond) * time.Millisecond

// step 推进一帧：处理输入 → 更新世界 → 广播结果
func (r *Room) step() {
	start := time.Now()
	r.tickSeq.Add(1)
	r.ProcessInputs()
	r.UpdateWorld()
	r.Broadcast()
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

// StartTicker 启动房间的 Tick 循环（单线程推进世界），重复调用无效
func (r *Room) StartTicker(interval time.Duration) {
	r.tickerOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-r.stop:
					return
				case <-ticker.C:
					r.step()
				}
			}
		}()
	})
}

// Stop 停止 Tick 循环；之后的加入请求不再处理
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}
