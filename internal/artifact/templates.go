package artifact

import (
	"bytes"
	"path/filepath"

	"github.com/spf13/afero"

	"vpnhub/internal/fault"
)

// templateFile — имя шаблона клиентского профиля OpenVPN. Шаблон
// содержит плейсхолдеры {username} и {password}.
const templateFile = "openvpn_template.ovpn"

// TemplateStore хранит шаблоны профилей: по каталогу на устройство
// плюс один глобальный шаблон-умолчание в корне.
type TemplateStore struct {
	fs  afero.Fs
	dir string
}

func NewTemplateStore(fs afero.Fs, dir string) (*TemplateStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &TemplateStore{fs: fs, dir: dir}, nil
}

func (t *TemplateStore) devicePath(deviceID string) string {
	return filepath.Join(t.dir, deviceID, templateFile)
}

// EnsureDeviceDir создаёт каталог шаблонов устройства (пустой — это
// нормально, тогда работает глобальный шаблон).
func (t *TemplateStore) EnsureDeviceDir(deviceID string) error {
	return t.fs.MkdirAll(filepath.Join(t.dir, deviceID), 0o755)
}

// RemoveDeviceDir рекурсивно удаляет каталог устройства (каскад при
// удалении устройства из реестра).
func (t *TemplateStore) RemoveDeviceDir(deviceID string) error {
	return t.fs.RemoveAll(filepath.Join(t.dir, deviceID))
}

// Upload перезаписывает шаблон устройства.
func (t *TemplateStore) Upload(deviceID string, content []byte) error {
	if err := t.EnsureDeviceDir(deviceID); err != nil {
		return err
	}
	return afero.WriteFile(t.fs, t.devicePath(deviceID), content, 0o644)
}

// load отдаёт шаблон устройства, при его отсутствии — глобальный.
func (t *TemplateStore) load(deviceID string) ([]byte, error) {
	for _, path := range []string{t.devicePath(deviceID), filepath.Join(t.dir, templateFile)} {
		ok, err := afero.Exists(t.fs, path)
		if err != nil {
			return nil, err
		}
		if ok {
			return afero.ReadFile(t.fs, path)
		}
	}
	return nil, fault.NotFoundf("no openvpn template for device %s and no default", deviceID)
}

// RenderProfile подставляет учётные данные в шаблон. Меняются только
// два плейсхолдера, остальные байты шаблона остаются как есть.
// Возвращает содержимое и имя файла вида <username>.ovpn.
func (t *TemplateStore) RenderProfile(username, password, deviceID string) ([]byte, string, error) {
	tpl, err := t.load(deviceID)
	if err != nil {
		return nil, "", err
	}
	out := bytes.ReplaceAll(tpl, []byte("{username}"), []byte(username))
	out = bytes.ReplaceAll(out, []byte("{password}"), []byte(password))
	return out, username + ".ovpn", nil
}
