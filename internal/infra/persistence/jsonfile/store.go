// Package jsonfile 是基于单个 JSON 文档的存储后端。
// 文档包含 users、photos、game 三个集合，每次写操作后整体落盘。
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// document 是磁盘上的文件格式
type document struct {
	Users  []domain.User       `json:"users"`
	Photos []domain.Photo      `json:"photos"`
	Game   *domain.GameSession `json:"game"`
}

// userRecord 持久化时需要保留 Color 和 NameKey，domain.User 的 JSON 标签会隐藏它们
type userRecord struct {
	domain.User
	Color string `json:"color"`
}

type diskDocument struct {
	Users  []userRecord        `json:"users"`
	Photos []domain.Photo      `json:"photos"`
	Game   *domain.GameSession `json:"game"`
}

func emptyDocument() *document {
	return &document{
		Users:  []domain.User{},
		Photos: []domain.Photo{},
		Game:   domain.NewGameSession(),
	}
}

// Store 持有内存中的文档，所有访问都经过 mu。
type Store struct {
	path string
	mu   sync.Mutex
	doc  *document
}

// Open 加载数据文件。文件不存在或内容损坏时使用空文档，并立即写回一个合法的文件。
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: data file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create data dir: %w", err)
	}

	s := &Store{path: path, doc: load(path)}
	if err := s.flush(); err != nil {
		return nil, err
	}
	return s, nil
}

func load(path string) *document {
	logCtx := logrus.WithField("data_file", path)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logCtx.WithError(err).Warn("Failed to read data file, starting with empty state")
		}
		return emptyDocument()
	}

	var disk diskDocument
	if err := json.Unmarshal(raw, &disk); err != nil {
		logCtx.WithError(err).Warn("Data file is corrupt, starting with empty state")
		return emptyDocument()
	}

	doc := emptyDocument()
	for _, rec := range disk.Users {
		u := rec.User
		u.Color = rec.Color
		u.NameKey = domain.NameKeyOf(u.Name)
		doc.Users = append(doc.Users, u)
	}
	if disk.Photos != nil {
		doc.Photos = disk.Photos
	}
	if disk.Game != nil {
		doc.Game = disk.Game
		doc.Game.ID = domain.GameSessionID
		if doc.Game.Order == nil {
			doc.Game.Order = []uint{}
		}
		if doc.Game.Status == "" {
			doc.Game.Status = domain.GameWaiting
		}
	}
	return doc
}

// flush 把整个文档写到临时文件再 rename，避免写一半的文件。调用方需持有 mu。
func (s *Store) flush() error {
	disk := diskDocument{
		Users:  make([]userRecord, 0, len(s.doc.Users)),
		Photos: s.doc.Photos,
		Game:   s.doc.Game,
	}
	for _, u := range s.doc.Users {
		disk.Users = append(disk.Users, userRecord{User: u, Color: u.Color})
	}

	raw, err := json.MarshalIndent(disk, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode document: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("jsonfile: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("jsonfile: replace %s: %w", s.path, err)
	}
	return nil
}

// Users 返回用户仓库视图
func (s *Store) Users() *UserRepository { return &UserRepository{store: s} }

// Photos 返回照片仓库视图
func (s *Store) Photos() *PhotoRepository { return &PhotoRepository{store: s} }

// Game 返回会话仓库视图
func (s *Store) Game() *GameRepository { return &GameRepository{store: s} }
