package models

import "time"

// DeviceSession is one desktop-app login. It is active while LogoutTime is nil.
type DeviceSession struct {
	ID           string
	UserID       string
	DeviceID     string
	DeviceName   string
	IPAddress    string
	SessionToken string
	LoginTime    time.Time
	LogoutTime   *time.Time
}

func (s *DeviceSession) IsActive() bool {
	return s.LogoutTime == nil
}
