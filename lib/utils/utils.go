package utils

import (
	"math/rand"
	"os"
	"time"
)

// 获取 [0, n) 范围内的随机数
func RandomInt(n int) int {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return r.Intn(n)
}

// PathExists reports whether path is an existing regular file
func PathExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
