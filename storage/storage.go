// Copyright 2024 torrentox
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage persists the parsed torrents into the SQLite database,
// which holds the raw document and the transfer counters of every torrent.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/torrentox/bt/metainfo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when the torrent does not exist.
var ErrNotFound = errors.New("torrent not found")

// Torrent is the persisted record of a torrent, which is identified by Name.
type Torrent struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	FilePath    string
	AnnounceURL string
	InfoHash    string `gorm:"index;size:40"`
	Raw         []byte

	// Size is the total length of the torrent content.
	Size       uint64
	Downloaded uint64
	Uploaded   uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTorrent returns a new Torrent record of the parsed torrent file.
//
// If the info has no name, the base name of path is used instead.
func NewTorrent(path string, raw []byte, mi metainfo.MetaInfo) Torrent {
	return Torrent{
		Name:        mi.Name(filepath.Base(path)),
		FilePath:    path,
		AnnounceURL: mi.Announce,
		InfoHash:    mi.InfoHash.HexString(),
		Raw:         raw,
		Size:        mi.TotalLength(),
	}
}

// Left returns the number of the bytes which have not been downloaded.
func (t Torrent) Left() uint64 {
	if t.Downloaded >= t.Size {
		return 0
	}
	return t.Size - t.Downloaded
}

// MetaInfo parses the raw document of the torrent.
func (t Torrent) MetaInfo() (metainfo.MetaInfo, error) {
	return metainfo.Parse(t.Raw)
}

// Store is the torrent store based on gorm.
type Store struct {
	db *gorm.DB
}

// Open opens the SQLite database at path and creates the tables
// if they do not exist.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("fail to open the database '%s': %w", path, err)
	}

	s := &Store{db: db}
	if err = s.InitTables(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewStore returns a new Store with the opened database.
func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// InitTables creates or migrates the tables.
func (s *Store) InitTables() error {
	if err := s.db.AutoMigrate(&Torrent{}); err != nil {
		return fmt.Errorf("fail to migrate the torrent table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// Save inserts the torrent, or replaces the torrent with the same name.
//
// The transfer counters of the existing torrent are kept.
func (s *Store) Save(t Torrent) error {
	t.ID = 0
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"file_path", "announce_url", "info_hash", "raw", "size", "updated_at",
		}),
	}).Create(&t).Error
	if err != nil {
		return fmt.Errorf("fail to save the torrent '%s': %w", t.Name, err)
	}
	return nil
}

// LoadByName returns the torrent by its name.
//
// If not exist, return ErrNotFound.
func (s *Store) LoadByName(name string) (t Torrent, err error) {
	err = s.db.Where("name = ?", name).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrNotFound
	}
	return
}

// List returns all the torrents sorted by the name.
func (s *Store) List() (ts []Torrent, err error) {
	err = s.db.Order("name").Find(&ts).Error
	return
}

// UpdateCounters updates the transfer counters of the torrent.
//
// If not exist, return ErrNotFound.
func (s *Store) UpdateCounters(name string, downloaded, uploaded uint64) error {
	result := s.db.Model(&Torrent{}).Where("name = ?", name).Updates(map[string]interface{}{
		"downloaded": downloaded,
		"uploaded":   uploaded,
	})
	if result.Error != nil {
		return fmt.Errorf("fail to update the counters of '%s': %w", name, result.Error)
	} else if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
