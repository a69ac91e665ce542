package client

import (
	"math"
	"math/rand"
)

// RandomFloat 返回 min 与 max 之间、保留 decimals 位小数的随机数
func RandomFloat(min, max float64, decimals int) float64 {
	v := min + rand.Float64()*(max-min)
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
