package domain

import "time"

// DatasetBucket is the object-storage bucket holding uploaded dataset files.
const DatasetBucket = "datasets"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RawFile locates the uploaded blob in object storage.
type RawFile struct {
	Bucket     string    `json:"bucket"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ProcessedFile is reserved for a future processing stage and stays empty
// until a processed variant of the blob exists.
type ProcessedFile struct {
	Bucket      string     `json:"bucket"`
	Path        *string    `json:"path"`
	ProcessedAt *time.Time `json:"processedAt"`
}

// Dataset is the metadata record created once per successful upload. The
// blob it references and the record itself are two separate resources; the
// record must never point at a path that was not written.
type Dataset struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	FileName          string        `json:"fileName"`
	FileType          string        `json:"fileType"`
	FileSize          int64         `json:"fileSize"`
	RawFile           RawFile       `json:"rawFile"`
	ProcessedFile     ProcessedFile `json:"processedFile"`
	QualityScore      *float64      `json:"qualityScore"`
	AnomaliesDetected bool          `json:"anomaliesDetected"`
	AnomalyCount      int           `json:"anomalyCount"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}
