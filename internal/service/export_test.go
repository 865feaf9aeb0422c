package service

// SetRandomSource 替换洗牌使用的随机数来源，仅供测试。
func SetRandomSource(s *GameService, intn func(n int) int) {
	s.intn = intn
}
