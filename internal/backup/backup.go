// Package backup writes and restores gzip-compressed plain SQL dumps of the
// office database, each with a JSON metadata sidecar.
package backup

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
)

const (
	dumpSuffix = ".sql.gz"
	metaSuffix = ".meta.json"
)

// Triggers recorded in metadata.
const (
	TriggerManual     = "manual"
	TriggerScheduled  = "scheduled"
	TriggerPreRestore = "pre-restore"
	TriggerCLI        = "cli"
)

var (
	// ErrNotFound is returned for unknown backup names.
	ErrNotFound = errors.New("backup not found")
	// ErrInvalidName rejects names that are not plain backup file names.
	ErrInvalidName = errors.New("invalid backup name")
)

// Metadata is stored next to every dump.
type Metadata struct {
	Name            string    `json:"name"`
	Database        string    `json:"database"`
	Host            string    `json:"host"`
	Port            string    `json:"port"`
	CreatedAt       time.Time `json:"created_at"`
	Trigger         string    `json:"trigger"`
	RetentionDays   int       `json:"retention_days"`
	ExpiresAt       time.Time `json:"expires_at"`
	SizeBytes       int64     `json:"size_bytes,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
}

// Backup is a dump file on disk with its metadata.
type Backup struct {
	Name      string        `json:"name"`
	Path      string        `json:"-"`
	Metadata  Metadata      `json:"metadata"`
	SizeBytes int64         `json:"size_bytes"`
	Age       time.Duration `json:"-"`
}

// ConnInfo identifies the database to dump.
type ConnInfo struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// ParseDSN extracts connection details from a postgres URL or keyword DSN.
func ParseDSN(dsn string) (ConnInfo, error) {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return ConnInfo{}, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.Database == "" {
		return ConnInfo{}, errors.New("database dsn has no database name")
	}
	return ConnInfo{
		Host:     cfg.Host,
		Port:     strconv.Itoa(int(cfg.Port)),
		Database: cfg.Database,
		User:     cfg.User,
		Password: cfg.Password,
	}, nil
}

// Runner executes the database tools. Dump writes plain SQL to w; Restore applies plain SQL read from r.
type Runner interface {
	Dump(ctx context.Context, conn ConnInfo, w io.Writer) error
	Restore(ctx context.Context, conn ConnInfo, r io.Reader) error
}

// Manager owns the backup directory.
type Manager struct {
	dir           string
	retentionDays int
	conn          ConnInfo
	runner        Runner
	now           func() time.Time
}

// Options configures a Manager.
type Options struct {
	Dir           string
	RetentionDays int
	Conn          ConnInfo
	// Runner defaults to the pg_dump/psql binaries.
	Runner Runner
	Now    func() time.Time
}

// NewManager builds a Manager.
func NewManager(opts Options) (*Manager, error) {
	if opts.Dir == "" {
		return nil, errors.New("backup directory is required")
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 14
	}
	if opts.Runner == nil {
		opts.Runner = PGRunner{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		dir:           dir,
		retentionDays: opts.RetentionDays,
		conn:          opts.Conn,
		runner:        opts.Runner,
		now:           opts.Now,
	}, nil
}

// Dir returns the absolute backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create dumps the database into a new compressed file.
func (m *Manager) Create(ctx context.Context, trigger string) (*Backup, error) {
	if trigger == "" {
		trigger = TriggerManual
	}
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	started := m.now().UTC()
	name := fmt.Sprintf("office_%s_%s%s", strings.ToLower(ulid.Make().String()), trigger, dumpSuffix)
	path := filepath.Join(m.dir, name)
	meta := Metadata{
		Name:          name,
		Database:      m.conn.Database,
		Host:          m.conn.Host,
		Port:          m.conn.Port,
		CreatedAt:     started,
		Trigger:       trigger,
		RetentionDays: m.retentionDays,
		ExpiresAt:     started.Add(time.Duration(m.retentionDays) * 24 * time.Hour),
	}

	if err := m.writeDump(ctx, path); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	meta.SizeBytes = info.Size()
	meta.DurationSeconds = m.now().Sub(started).Seconds()
	if err := writeMetadata(metaPath(path), meta); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	return &Backup{Name: name, Path: path, Metadata: meta, SizeBytes: meta.SizeBytes}, nil
}

func (m *Manager) writeDump(ctx context.Context, path string) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create dump file: %w", err)
	}
	defer func() { _ = out.Close() }()

	gz := gzip.NewWriter(out)
	if err := m.runner.Dump(ctx, m.conn, gz); err != nil {
		return fmt.Errorf("dump database: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress dump: %w", err)
	}
	return out.Sync()
}

// List returns backups newest first.
func (m *Manager) List() ([]Backup, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir, "*"+dumpSuffix))
	if err != nil {
		return nil, err
	}
	now := m.now()
	backups := make([]Backup, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		meta, err := loadMetadata(metaPath(path))
		if err != nil {
			meta = Metadata{
				Name:      filepath.Base(path),
				CreatedAt: info.ModTime().UTC(),
				Trigger:   "unknown",
			}
		}
		backups = append(backups, Backup{
			Name:      filepath.Base(path),
			Path:      path,
			Metadata:  meta,
			SizeBytes: info.Size(),
			Age:       now.Sub(meta.CreatedAt),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Metadata.CreatedAt.After(backups[j].Metadata.CreatedAt)
	})
	return backups, nil
}

// Get returns one backup by file name.
func (m *Manager) Get(name string) (*Backup, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	list, err := m.List()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i], nil
		}
	}
	return nil, ErrNotFound
}

// Open streams the compressed dump of a backup.
func (m *Manager) Open(name string) (io.ReadCloser, *Backup, error) {
	b, err := m.Get(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(b.Path)
	if err != nil {
		return nil, nil, err
	}
	return f, b, nil
}

// Restore replaces the database contents with a backup. A safety backup of the
// current state is taken first and returned.
func (m *Manager) Restore(ctx context.Context, name string) (*Backup, error) {
	b, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	safety, err := m.Create(ctx, TriggerPreRestore)
	if err != nil {
		return nil, fmt.Errorf("safety backup: %w", err)
	}

	f, err := os.Open(b.Path)
	if err != nil {
		return safety, err
	}
	defer func() { _ = f.Close() }()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return safety, fmt.Errorf("open dump: %w", err)
	}
	defer func() { _ = gz.Close() }()

	if err := m.runner.Restore(ctx, m.conn, gz); err != nil {
		return safety, fmt.Errorf("restore database: %w", err)
	}
	return safety, nil
}

// Delete removes a backup and its metadata.
func (m *Manager) Delete(name string) error {
	b, err := m.Get(name)
	if err != nil {
		return err
	}
	return removeBackup(b.Path)
}

// Cleanup removes backups past their retention. The newest backup is always kept.
func (m *Manager) Cleanup(dryRun bool) ([]Backup, error) {
	list, err := m.List()
	if err != nil {
		return nil, err
	}
	var removed []Backup
	for i, b := range list {
		if i == 0 {
			continue
		}
		days := b.Metadata.RetentionDays
		if days <= 0 {
			days = m.retentionDays
		}
		if b.Age <= time.Duration(days)*24*time.Hour {
			continue
		}
		if !dryRun {
			if err := removeBackup(b.Path); err != nil {
				return removed, err
			}
		}
		removed = append(removed, b)
	}
	return removed, nil
}

func removeBackup(path string) error {
	if err := os.Remove(path); err != nil {
		return err
	}
	if err := os.Remove(metaPath(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, ".") || !strings.HasSuffix(name, dumpSuffix) {
		return ErrInvalidName
	}
	return nil
}

func metaPath(dumpPath string) string {
	return strings.TrimSuffix(dumpPath, dumpSuffix) + metaSuffix
}

func writeMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func loadMetadata(path string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}
