package store

import "time"

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Username     string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type DatasetModel struct {
	ID                string     `gorm:"primaryKey"`
	UserID            string     `gorm:"not null;index"`
	FileName          string     `gorm:"not null"`
	FileType          string
	FileSize          int64      `gorm:"not null"`
	RawBucket         string     `gorm:"not null"`
	RawPath           string     `gorm:"not null"`
	RawUploadedAt     time.Time  `gorm:"not null"`
	ProcessedBucket   string
	ProcessedPath     *string
	ProcessedAt       *time.Time
	QualityScore      *float64
	AnomaliesDetected bool       `gorm:"not null;default:false"`
	AnomalyCount      int        `gorm:"not null;default:0"`
	CreatedAt         time.Time  `gorm:"not null;index"`
	UpdatedAt         time.Time  `gorm:"not null"`
}
