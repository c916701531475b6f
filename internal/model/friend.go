// Package model はドメインモデルを定義する。
package model

import "time"

// Friend は投票に参加できる友人を表す。
// シードデータとして登録され、以後変更・削除されない。
type Friend struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
