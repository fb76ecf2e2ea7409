package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"astrofusion/internal/auth"
	"astrofusion/internal/domain"
	"astrofusion/internal/storage"
	"astrofusion/internal/store"
	"astrofusion/internal/util"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	JWTSecret      string
	SessionTTL     time.Duration
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Store, Sessions, and Objects override the defaults built from the
	// fields above. Tests inject fakes here.
	Store    store.Store
	Sessions store.SessionStore
	Objects  storage.ObjectStore
}

// App wires the credential store, session tokens, object storage, and
// dataset metadata into the signup/login/upload operations.
type App struct {
	store         store.Store
	sessions      store.SessionStore
	objects       storage.ObjectStore
	bucket        string
	presignExpiry time.Duration
}

// New constructs the application with database-backed metadata storage and
// MinIO object storage.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
	}

	sessions := cfg.Sessions
	if sessions == nil {
		var err error
		sessions, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("init session store: %w", err)
		}
	}

	bucket := cfg.MinioBucket
	if bucket == "" {
		bucket = domain.DatasetBucket
	}
	objects := cfg.Objects
	if objects == nil {
		ms, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, bucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
		objects = ms
		// Record the bucket the store actually ensured.
		bucket = ms.Bucket()
	}

	return &App{
		store:         dataStore,
		sessions:      sessions,
		objects:       objects,
		bucket:        bucket,
		presignExpiry: 15 * time.Minute,
	}, nil
}

// SignUp registers a new user. The email is the unique account key.
func (a *App) SignUp(email, username, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return domain.User{}, ErrFieldsRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: check email: %v", ErrPersistence, err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		// The unique index on email backstops concurrent signups.
		if errors.Is(err, store.ErrDuplicateEmail) {
			return domain.User{}, ErrEmailAlreadyExists
		}
		return domain.User{}, fmt.Errorf("%w: save user: %v", ErrPersistence, err)
	}
	return user, nil
}

// Login validates credentials and mints a session token expiring in 24 hours.
func (a *App) Login(email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("%w: fetch user: %v", ErrPersistence, err)
	}
	if !ok {
		return "", ErrUserNotFound
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidPassword
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// UserFromToken resolves a user from a session token. Any parse, signature,
// or expiry failure yields not-ok.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Upload writes the blob under <userId>/raw/<epoch-ms>_<filename> and then
// creates the dataset metadata record pointing at it. A failed blob write
// creates no record; a failed record write after a successful blob write
// leaves the blob orphaned, with no compensating delete.
func (a *App) Upload(ctx context.Context, owner domain.User, filename, contentType string, size int64, r io.Reader) (domain.Dataset, error) {
	if strings.TrimSpace(filename) == "" {
		return domain.Dataset{}, ErrFileRequired
	}
	name := sanitizeFilename(filepath.Base(filename))
	if name == "" {
		name = "file"
	}
	now := time.Now().UTC()
	storageKey := fmt.Sprintf("%s/raw/%d_%s", owner.ID, now.UnixMilli(), name)
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := a.objects.Put(ctx, storageKey, r, size, contentType); err != nil {
		return domain.Dataset{}, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	dataset := domain.Dataset{
		ID:       util.NewID(),
		UserID:   owner.ID,
		FileName: name,
		FileType: contentType,
		FileSize: size,
		RawFile: domain.RawFile{
			Bucket:     a.bucket,
			Path:       storageKey,
			UploadedAt: now,
		},
		ProcessedFile: domain.ProcessedFile{Bucket: a.bucket},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.SaveDataset(dataset); err != nil {
		// The blob at storageKey is now orphaned. Deliberately no cleanup.
		return domain.Dataset{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return dataset, nil
}

// ListDatasets returns the caller's datasets.
func (a *App) ListDatasets(user domain.User) ([]domain.Dataset, error) {
	return a.store.ListDatasetsByOwner(user.ID)
}

// GetDataset retrieves a dataset by ID.
func (a *App) GetDataset(id string) (domain.Dataset, bool, error) {
	return a.store.GetDataset(id)
}

// DownloadURL returns a pre-signed URL for the dataset's raw file.
func (a *App) DownloadURL(ctx context.Context, id string) (string, string, error) {
	dataset, ok, err := a.store.GetDataset(id)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", ErrDatasetNotFound
	}
	url, err := a.objects.PresignGet(ctx, dataset.RawFile.Path, a.presignExpiry)
	if err != nil {
		return "", "", err
	}
	return url, dataset.FileName, nil
}

// DeleteDataset removes the metadata record, then the blob.
func (a *App) DeleteDataset(ctx context.Context, id string) error {
	dataset, ok, err := a.store.GetDataset(id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := a.store.DeleteDataset(id); err != nil {
		return err
	}
	return a.objects.Delete(ctx, dataset.RawFile.Path)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		if r <= 0x7f {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
				b.WriteRune(r)
				lastUnderscore = false
				continue
			}
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
