package registry

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"vpnhub/internal/models"
)

const (
	devicesFile   = "devices.json"
	operatorsFile = "operators.json"
)

// Store — документное хранилище реестра: два независимых JSON-файла,
// каждый читается и перезаписывается целиком. Частичных обновлений и
// транзакций нет; одновременные сохранения работают по принципу
// last-write-wins (mutex лишь сериализует запись, чтобы не порвать файл).
// Битый JSON — фатальная ошибка парсинга, самолечения нет.
type Store struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewStore открывает хранилище в dir, создавая недостающие документы
// в пустом, но корректном виде.
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	s := &Store{fs: fs, dir: dir}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("registry dir: %w", err)
	}
	if err := s.ensure(devicesFile, &models.DeviceDocument{Devices: []models.Device{}}); err != nil {
		return nil, err
	}
	if err := s.ensure(operatorsFile, &models.OperatorDocument{
		Full:   []string{},
		Scoped: []models.ScopedOperator{},
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensure(name string, empty any) error {
	path := filepath.Join(s.dir, name)
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s.write(name, empty)
}

func (s *Store) read(name string, out any) error {
	raw, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("registry read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("registry parse %s: %w", name, err)
	}
	return nil
}

// write сохраняет документ атомарно: temp-файл + rename.
func (s *Store) write(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("registry encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, raw, 0o644); err != nil {
		return fmt.Errorf("registry write %s: %w", name, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("registry rename %s: %w", name, err)
	}
	return nil
}

func (s *Store) LoadDevices() (*models.DeviceDocument, error) {
	var doc models.DeviceDocument
	if err := s.read(devicesFile, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) SaveDevices(doc *models.DeviceDocument) error {
	return s.write(devicesFile, doc)
}

func (s *Store) LoadOperators() (*models.OperatorDocument, error) {
	var doc models.OperatorDocument
	if err := s.read(operatorsFile, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) SaveOperators(doc *models.OperatorDocument) error {
	return s.write(operatorsFile, doc)
}
