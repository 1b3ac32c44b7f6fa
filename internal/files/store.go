package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Type classifies a stored file.
type Type string

const (
	TypeImage        Type = "image"
	TypeVideo        Type = "video"
	TypeRecording    Type = "recording"
	TypePresentation Type = "presentation"
	TypeWml          Type = "wml" // exported whiteboard artifact
	TypeFolder       Type = "folder"
)

var ErrNotFound = errors.New("file not found")

// Item is the metadata row for one stored file. Blobs live on disk under
// the store's data dir, keyed by hash.
type Item struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Hash      string `gorm:"uniqueIndex;size:64"`
	Name      string
	Type      Type  `gorm:"size:16;index"`
	RoomID    int64 `gorm:"index"`
	Width     int
	Height    int
	Count     int // page count for presentations
	Mime      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps file metadata in SQLite and contents on disk.
type Store struct {
	db  *gorm.DB
	dir string
	log zerolog.Logger
}

func NewStore(dir, dbPath string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create file dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open file db: %w", err)
	}
	if err := db.AutoMigrate(&Item{}); err != nil {
		return nil, fmt.Errorf("migrate file db: %w", err)
	}
	return &Store{
		db:  db,
		dir: dir,
		log: log.With().Str("component", "files").Logger(),
	}, nil
}

// Get returns the metadata for id.
func (s *Store) Get(id int64) (*Item, error) {
	var item Item
	err := s.db.First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load file %d: %w", id, err)
	}
	return &item, nil
}

// Create stores metadata and contents for a new file. A missing hash is
// minted; the MIME type is sniffed from the contents.
func (s *Store) Create(item *Item, contents []byte) (*Item, error) {
	if item.Hash == "" {
		item.Hash = uuid.NewString()
	}
	if item.Mime == "" && len(contents) > 0 {
		item.Mime = mimetype.Detect(contents).String()
	}
	if err := os.WriteFile(s.path(item.Hash), contents, 0o644); err != nil {
		return nil, fmt.Errorf("write file blob: %w", err)
	}
	if err := s.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("create file record: %w", err)
	}
	s.log.Debug().Int64("id", item.ID).Str("type", string(item.Type)).Msg("file stored")
	return item, nil
}

// Update persists changed metadata.
func (s *Store) Update(item *Item) error {
	if err := s.db.Save(item).Error; err != nil {
		return fmt.Errorf("update file record: %w", err)
	}
	return nil
}

// ReadFile returns the file contents.
func (s *Store) ReadFile(item *Item) ([]byte, error) {
	data, err := os.ReadFile(s.path(item.Hash))
	if err != nil {
		return nil, fmt.Errorf("read file blob: %w", err)
	}
	return data, nil
}

// Exists reports whether the blob is still on disk.
func (s *Store) Exists(item *Item) bool {
	_, err := os.Stat(s.path(item.Hash))
	return err == nil
}

func (s *Store) path(hash string) string {
	return filepath.Join(s.dir, hash)
}
