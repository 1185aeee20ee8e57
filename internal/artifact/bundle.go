package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/afero"
)

// qrSize — сторона PNG с QR-кодом, пикселей.
const qrSize = 512

// Generator складывает готовые артефакты (файлы конфигов, QR-картинки)
// во временный каталог. Файлы живут до Cleanup: вызывающий обязан
// убрать их на любом пути выхода, успешной доставки или нет.
type Generator struct {
	fs  afero.Fs
	dir string
}

func NewGenerator(fs afero.Fs, dir string) (*Generator, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Generator{fs: fs, dir: dir}, nil
}

// File — один файл артефакта: путь во временном каталоге и имя,
// под которым его надо отдать пользователю.
type File struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Bundle — набор файлов одной операции с общим Cleanup.
type Bundle struct {
	Files []File
	fs    afero.Fs
}

// Cleanup удаляет все файлы набора. Ошибки удаления подавляются:
// повторный Cleanup и Cleanup после частичного сбоя безопасны.
func (b *Bundle) Cleanup() {
	if b == nil {
		return
	}
	for _, f := range b.Files {
		_ = b.fs.Remove(f.Path)
	}
	b.Files = nil
}

func (g *Generator) scratch(suffix string) string {
	return filepath.Join(g.dir, uuid.NewString()+suffix)
}

func (g *Generator) put(b *Bundle, content []byte, suffix, name string) error {
	path := g.scratch(suffix)
	if err := afero.WriteFile(g.fs, path, content, 0o600); err != nil {
		return err
	}
	b.Files = append(b.Files, File{Path: path, Name: name})
	return nil
}

// ProfileBundle — один файл <username>.ovpn.
func (g *Generator) ProfileBundle(content []byte, filename string) (*Bundle, error) {
	b := &Bundle{fs: g.fs}
	if err := g.put(b, content, ".ovpn", filename); err != nil {
		return nil, err
	}
	return b, nil
}

// PeerBundle — клиентский .conf плюс его QR-представление для
// импорта с экрана.
func (g *Generator) PeerBundle(peerName, conf string) (*Bundle, error) {
	b := &Bundle{fs: g.fs}
	if err := g.put(b, []byte(conf), ".conf", peerName+".conf"); err != nil {
		return nil, err
	}
	png, err := RenderQR(conf)
	if err != nil {
		b.Cleanup()
		return nil, err
	}
	if err := g.put(b, png, ".png", peerName+".png"); err != nil {
		b.Cleanup()
		return nil, err
	}
	return b, nil
}

// RenderQR кодирует произвольный текст в PNG с QR-кодом.
func RenderQR(text string) ([]byte, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}

// Read отдаёт содержимое файла артефакта (для доставки в ответе API).
func (b *Bundle) Read(i int) ([]byte, error) {
	return afero.ReadFile(b.fs, b.Files[i].Path)
}
