package models

import "time"

type RefreshToken struct {
	DeviceID string
	Expires  time.Time
}
