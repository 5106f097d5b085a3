package utils

import "math/rand"

const randLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandSeq 生成 n 位随机字符串（用于握手密钥等非密码学场景）。
func RandSeq(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = randLetters[rand.Intn(len(randLetters))]
	}
	return string(b)
}
