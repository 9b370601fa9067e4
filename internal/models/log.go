package models

import "time"

// Log kinds. Every entry shares the envelope (timestamp, IP, user agent);
// the payload columns used depend on the kind.
const (
	LogKindAccess   = "access"
	LogKindDownload = "download"
)

// Log records an access or download event. Access entries carry the
// acting user and a free-text action, download entries the installer
// that was fetched.
type Log struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Kind      string `gorm:"size:16;index;not null" json:"kind"`
	IPAddress string `gorm:"size:64" json:"ip_address"`
	UserAgent string `gorm:"size:255" json:"user_agent"`

	UserID      *uint   `gorm:"index" json:"user_id,omitempty"`
	Action      *string `gorm:"size:255" json:"action,omitempty"`
	InstallerID *uint   `gorm:"index" json:"installer_id,omitempty"`
}

// NewAccessLog builds an access entry for the given user and action.
func NewAccessLog(userID uint, ip, userAgent, action string) Log {
	return Log{
		Kind:      LogKindAccess,
		IPAddress: ip,
		UserAgent: userAgent,
		UserID:    &userID,
		Action:    &action,
	}
}

// NewDownloadLog builds a download entry for the given installer.
func NewDownloadLog(installerID uint, ip, userAgent string) Log {
	return Log{
		Kind:        LogKindDownload,
		IPAddress:   ip,
		UserAgent:   userAgent,
		InstallerID: &installerID,
	}
}
