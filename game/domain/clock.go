package domain

import "time"

// Clock は現在時刻の取得を抽象化します。テストでは固定時刻を注入します。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock は time.Now を返す Clock です。
var SystemClock Clock = systemClock{}
