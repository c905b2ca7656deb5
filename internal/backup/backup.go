// Package backup snapshots the ledger database, encrypts the snapshot, and
// ships it to S3-compatible storage on a schedule.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config controls the backup manager.
type Config struct {
	DBPath     string
	Passphrase string
	Interval   time.Duration
	S3         S3Config
}

// Manager runs scheduled encrypted backups of the ledger database.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	lastBackup time.Time
	lastKey    string
}

// NewManager creates a Manager. S3 credentials are required; Enabled reports
// whether they were supplied.
func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, logger: logger}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the manager has storage credentials.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() || m.cfg.Interval <= 0 {
		return
	}

	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the backup loop.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// LastBackup returns the time and object key of the most recent successful
// backup, or zero values when none has run yet.
func (m *Manager) LastBackup() (time.Time, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastBackup, m.lastKey
}

// RunNow snapshots, encrypts, and uploads the database immediately.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return "", fmt.Errorf("backup not configured: S3 credentials missing")
	}

	id := uuid.NewString()
	key := fmt.Sprintf("backups/%s/%s.db.enc", time.Now().UTC().Format("2006-01-02"), id)

	tmpDir := os.TempDir()
	snapshot := filepath.Join(tmpDir, fmt.Sprintf("grana-backup-%s.db", id))
	encFile := filepath.Join(tmpDir, fmt.Sprintf("grana-backup-%s.db.enc", id))
	defer os.Remove(snapshot)
	defer os.Remove(encFile)

	// VACUUM INTO produces a consistent single-file snapshot even with WAL
	// active, so no checkpoint dance is needed.
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	if err := EncryptFile(snapshot, encFile, m.cfg.Passphrase, salt); err != nil {
		return "", fmt.Errorf("encrypt snapshot: %w", err)
	}

	if err := m.upload(ctx, client, bucket, key, encFile); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.lastBackup = time.Now().UTC()
	m.lastKey = key
	m.mu.Unlock()

	m.logger.Info("backup uploaded", "key", key)
	return key, nil
}

// upload pushes the encrypted file to storage, retrying transient failures
// with exponential backoff.
func (m *Manager) upload(ctx context.Context, client s3Client, bucket, key, path string) error {
	backoff := retry.WithMaxRetries(4, retry.NewExponential(time.Second))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open encrypted file: %w", err)
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat encrypted file: %w", err)
		}

		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          f,
			ContentLength: aws.Int64(stat.Size()),
		})
		if err != nil {
			return retry.RetryableError(fmt.Errorf("upload to s3: %w", err))
		}
		return nil
	})
}

// Restore downloads an encrypted backup object and decrypts it to dstPath.
// The running database is not touched; the operator swaps files and restarts.
func (m *Manager) Restore(ctx context.Context, key, dstPath string) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("backup not configured: S3 credentials missing")
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	encFile := filepath.Join(os.TempDir(), fmt.Sprintf("grana-restore-%s.db.enc", uuid.NewString()))
	defer os.Remove(encFile)

	out, err := os.OpenFile(encFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := out.ReadFrom(result.Body); err != nil {
		out.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := DecryptFile(encFile, dstPath, m.cfg.Passphrase); err != nil {
		return err
	}

	m.logger.Info("backup restored", "key", key, "path", dstPath)
	return nil
}
