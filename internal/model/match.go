// Package model はドメインモデルを定義する。
package model

import "time"

// Match は成立したルームメイトのペアを表す。
// Friend1/Friend2は投票時の順序（投票者, ルームメイト）をそのまま保持するが、
// ペアとしては順序を持たない。
type Match struct {
	ID        string
	Friend1   string
	Friend2   string
	CreatedAt time.Time
}

// SamePair はマッチが a, b の順序なしペアと一致するかを判定する。
func (m Match) SamePair(a, b string) bool {
	return (m.Friend1 == a && m.Friend2 == b) || (m.Friend1 == b && m.Friend2 == a)
}

// PairKey はペアを正規化した (low, high) を返す。
// ストアの一意制約キーとして使用する。
func PairKey(a, b string) (low, high string) {
	if a <= b {
		return a, b
	}
	return b, a
}
