package client

// Controller 决策函数可见的全部能力：转向、油门、开火
type Controller interface {
	Rotate(angle float64) error
	Throttle(speed float64) error
	Fire() error
}

type controller struct {
	s *Session
}

func (c controller) Rotate(angle float64) error  { return c.s.Rotate(angle) }
func (c controller) Throttle(speed float64) error { return c.s.Throttle(speed) }
func (c controller) Fire() error                  { return c.s.Fire() }

// Controller 返回绑定到本会话的控制器，不暴露会话的其他方法
func (s *Session) Controller() Controller {
	return controller{s: s}
}
