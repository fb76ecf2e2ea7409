package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"astrofusion/internal/domain"
)

// GormStore implements Store using GORM. Production deployments run against
// Postgres; sqlite DSNs are accepted for local development and tests.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(openDialector(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &DatasetModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func openDialector(dsn string) gorm.Dialector {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.Contains(lower, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// SaveUser registers or updates a user. Conflicts on id are upserts, so a
// duplicated-key error here can only come from the unique email index.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "username", "password_hash", "updated_at"}),
	}).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

// HasUserEmail checks if the email is already registered.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SaveDataset stores or updates a dataset metadata record.
func (s *GormStore) SaveDataset(d domain.Dataset) error {
	model := datasetToModel(d)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "file_name", "file_type", "file_size",
			"raw_bucket", "raw_path", "raw_uploaded_at",
			"processed_bucket", "processed_path", "processed_at",
			"quality_score", "anomalies_detected", "anomaly_count", "updated_at",
		}),
	}).Create(&model).Error
}

// GetDataset retrieves a dataset record.
func (s *GormStore) GetDataset(id string) (domain.Dataset, bool, error) {
	var model DatasetModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Dataset{}, false, nil
		}
		return domain.Dataset{}, false, err
	}
	return datasetFromModel(model), true, nil
}

// ListDatasetsByOwner returns the owner's datasets ordered by creation time.
func (s *GormStore) ListDatasetsByOwner(userID string) ([]domain.Dataset, error) {
	var models []DatasetModel
	if err := s.db.Order("created_at ASC").Where("user_id = ?", userID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Dataset, 0, len(models))
	for _, m := range models {
		res = append(res, datasetFromModel(m))
	}
	return res, nil
}

// DeleteDataset removes a dataset metadata record.
func (s *GormStore) DeleteDataset(id string) error {
	return s.db.Delete(&DatasetModel{}, "id = ?", id).Error
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func datasetToModel(d domain.Dataset) DatasetModel {
	return DatasetModel{
		ID:                d.ID,
		UserID:            d.UserID,
		FileName:          d.FileName,
		FileType:          d.FileType,
		FileSize:          d.FileSize,
		RawBucket:         d.RawFile.Bucket,
		RawPath:           d.RawFile.Path,
		RawUploadedAt:     d.RawFile.UploadedAt,
		ProcessedBucket:   d.ProcessedFile.Bucket,
		ProcessedPath:     d.ProcessedFile.Path,
		ProcessedAt:       d.ProcessedFile.ProcessedAt,
		QualityScore:      d.QualityScore,
		AnomaliesDetected: d.AnomaliesDetected,
		AnomalyCount:      d.AnomalyCount,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func datasetFromModel(m DatasetModel) domain.Dataset {
	return domain.Dataset{
		ID:       m.ID,
		UserID:   m.UserID,
		FileName: m.FileName,
		FileType: m.FileType,
		FileSize: m.FileSize,
		RawFile: domain.RawFile{
			Bucket:     m.RawBucket,
			Path:       m.RawPath,
			UploadedAt: m.RawUploadedAt,
		},
		ProcessedFile: domain.ProcessedFile{
			Bucket:      m.ProcessedBucket,
			Path:        m.ProcessedPath,
			ProcessedAt: m.ProcessedAt,
		},
		QualityScore:      m.QualityScore,
		AnomaliesDetected: m.AnomaliesDetected,
		AnomalyCount:      m.AnomalyCount,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
