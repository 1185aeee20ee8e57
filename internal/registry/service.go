package registry

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vpnhub/internal/fault"
	"vpnhub/internal/models"
)

// TemplateAssets — то, что сервису нужно от хранилища шаблонов:
// жизненный цикл каталога устройства и загрузка шаблона.
type TemplateAssets interface {
	EnsureDeviceDir(deviceID string) error
	RemoveDeviceDir(deviceID string) error
	Upload(deviceID string, content []byte) error
}

// Service — CRUD реестра устройств и прав операторов. Каждая мутирующая
// операция сперва проверяет, что вызывающий оператор — full-уровня;
// отказ не меняет состояние.
type Service struct {
	store  *Store
	access *Access
	assets TemplateAssets
	log    *logrus.Logger
}

func NewService(store *Store, access *Access, assets TemplateAssets, log *logrus.Logger) *Service {
	return &Service{store: store, access: access, assets: assets, log: log}
}

// Access отдаёт компонент контроля доступа (для чтения уровня снаружи).
func (s *Service) Access() *Access { return s.access }

// DeviceInput — поля нового устройства.
type DeviceInput struct {
	Name         string
	Host         string
	Username     string
	Password     string
	OVPNProfile  string
	WGInterface  string
	WGEndpoint   string
	WGAllowedIPs []string
}

// AddDevice создаёт устройство с новым id вида rtr_xxxxxxxx и каталогом
// шаблонов под него. Возвращает id.
func (s *Service) AddDevice(callerID string, in DeviceInput) (string, error) {
	if err := s.access.RequireFull(callerID); err != nil {
		return "", err
	}
	doc, err := s.store.LoadDevices()
	if err != nil {
		return "", err
	}

	id := "rtr_" + uuid.NewString()[:8]
	if err := s.assets.EnsureDeviceDir(id); err != nil {
		return "", err
	}
	doc.Devices = append(doc.Devices, models.Device{
		ID:       id,
		Name:     in.Name,
		Host:     in.Host,
		Username: in.Username,
		Password: in.Password,
		OpenVPN:  models.OpenVPNSettings{Profile: in.OVPNProfile},
		WireGuard: models.WireGuardSettings{
			InterfaceName: in.WGInterface,
			Endpoint:      in.WGEndpoint,
			AllowedIPs:    trimmedIPs(in.WGAllowedIPs),
		},
	})
	if err := s.store.SaveDevices(doc); err != nil {
		return "", err
	}
	s.log.Infof("device added: id=%s name=%q by=%s", id, in.Name, callerID)
	return id, nil
}

// Редактируемые поля устройства. Для wg_allowed_ips значение — список,
// замещающий сохранённый целиком.
const (
	FieldName         = "name"
	FieldHost         = "host"
	FieldUsername     = "username"
	FieldPassword     = "password"
	FieldOVPNProfile  = "ovpn_profile"
	FieldWGInterface  = "wg_interface"
	FieldWGEndpoint   = "wg_endpoint"
	FieldWGAllowedIPs = "wg_allowed_ips"
)

// EditDeviceField меняет одно поле устройства. value — string для всех
// полей, кроме wg_allowed_ips, где ожидается []string.
func (s *Service) EditDeviceField(callerID, deviceID, field string, value any) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	doc, err := s.store.LoadDevices()
	if err != nil {
		return err
	}
	idx := -1
	for i := range doc.Devices {
		if doc.Devices[i].ID == deviceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fault.NotFoundf("device %s", deviceID)
	}

	dev := &doc.Devices[idx]
	if field == FieldWGAllowedIPs {
		list, ok := value.([]string)
		if !ok {
			return fault.Invalidf("field %s expects a list", field)
		}
		dev.WireGuard.AllowedIPs = trimmedIPs(list)
	} else {
		str, ok := value.(string)
		if !ok {
			return fault.Invalidf("field %s expects a string", field)
		}
		switch field {
		case FieldName:
			dev.Name = str
		case FieldHost:
			dev.Host = str
		case FieldUsername:
			dev.Username = str
		case FieldPassword:
			dev.Password = str
		case FieldOVPNProfile:
			dev.OpenVPN.Profile = str
		case FieldWGInterface:
			dev.WireGuard.InterfaceName = str
		case FieldWGEndpoint:
			dev.WireGuard.Endpoint = str
		default:
			return fault.Invalidf("unknown field %q", field)
		}
	}
	if err := s.store.SaveDevices(doc); err != nil {
		return err
	}
	s.log.Infof("device %s: field %s updated by %s", deviceID, field, callerID)
	return nil
}

// DeleteDevice удаляет запись, её каталог шаблонов и вычищает id из
// allow-list-ов всех scoped-операторов. Каскад — две независимые
// коллекции без общей транзакции: частичный сбой оставляет висячую
// ссылку и громко логируется, но не ломает безопасность.
func (s *Service) DeleteDevice(callerID, deviceID string) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	doc, err := s.store.LoadDevices()
	if err != nil {
		return err
	}
	idx := -1
	for i := range doc.Devices {
		if doc.Devices[i].ID == deviceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fault.NotFoundf("device %s", deviceID)
	}
	doc.Devices = append(doc.Devices[:idx], doc.Devices[idx+1:]...)
	if err := s.store.SaveDevices(doc); err != nil {
		return err
	}

	if err := s.assets.RemoveDeviceDir(deviceID); err != nil {
		s.log.Errorf("cascade: template dir for %s not removed: %v", deviceID, err)
	}

	ops, err := s.store.LoadOperators()
	if err != nil {
		s.log.Errorf("cascade: operators not loaded, %s may dangle in allow-lists: %v", deviceID, err)
		return nil
	}
	changed := false
	for i := range ops.Scoped {
		kept := ops.Scoped[i].AllowedDevices[:0]
		for _, id := range ops.Scoped[i].AllowedDevices {
			if id != deviceID {
				kept = append(kept, id)
			} else {
				changed = true
			}
		}
		ops.Scoped[i].AllowedDevices = kept
	}
	if changed {
		if err := s.store.SaveOperators(ops); err != nil {
			s.log.Errorf("cascade: allow-lists not saved, %s dangles: %v", deviceID, err)
		}
	}
	s.log.Infof("device deleted: id=%s by=%s", deviceID, callerID)
	return nil
}

// UploadTemplate перезаписывает шаблон OpenVPN-профиля устройства.
func (s *Service) UploadTemplate(callerID, deviceID string, content []byte) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	if _, err := s.GetDevice(deviceID); err != nil {
		return err
	}
	if err := s.assets.Upload(deviceID, content); err != nil {
		return err
	}
	s.log.Infof("template uploaded for %s by %s", deviceID, callerID)
	return nil
}

// GetDevice возвращает устройство по id без проверки прав: адресат —
// доверенный слой оркестрации, уже отфильтровавший список.
func (s *Service) GetDevice(deviceID string) (*models.Device, error) {
	doc, err := s.store.LoadDevices()
	if err != nil {
		return nil, err
	}
	for i := range doc.Devices {
		if doc.Devices[i].ID == deviceID {
			d := doc.Devices[i]
			return &d, nil
		}
	}
	return nil, fault.NotFoundf("device %s", deviceID)
}

// ListDevicesFor — устройства, видимые оператору, в порядке добавления
// в реестр.
func (s *Service) ListDevicesFor(operatorID string) ([]models.DeviceRef, error) {
	allowed, err := s.access.AllowedDevices(operatorID)
	if err != nil {
		return nil, err
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = struct{}{}
	}
	doc, err := s.store.LoadDevices()
	if err != nil {
		return nil, err
	}
	refs := make([]models.DeviceRef, 0, len(allowed))
	for _, d := range doc.Devices {
		if _, ok := allowedSet[d.ID]; ok {
			refs = append(refs, models.DeviceRef{ID: d.ID, Name: d.Name})
		}
	}
	return refs, nil
}

// ---- операции над правами ----

// AddScoped добавляет scoped-оператора. Отказ, если идентификатор уже
// занят на любом уровне или какой-то из deviceIDs неизвестен.
func (s *Service) AddScoped(callerID, operatorID, name string, deviceIDs []string) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	ops, err := s.store.LoadOperators()
	if err != nil {
		return err
	}
	if ops.HasFull(operatorID) || ops.FindScoped(operatorID) >= 0 {
		return fault.Conflictf("operator %s", operatorID)
	}
	devs, err := s.store.LoadDevices()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(devs.Devices))
	for _, d := range devs.Devices {
		known[d.ID] = struct{}{}
	}
	for _, id := range deviceIDs {
		if _, ok := known[id]; !ok {
			return fault.NotFoundf("device %s", id)
		}
	}
	ops.Scoped = append(ops.Scoped, models.ScopedOperator{
		ID:             operatorID,
		Name:           name,
		AllowedDevices: append([]string{}, deviceIDs...),
	})
	if err := s.store.SaveOperators(ops); err != nil {
		return err
	}
	s.log.Infof("scoped operator added: id=%s name=%q by=%s", operatorID, name, callerID)
	return nil
}

// EditScopedName меняет отображаемое имя scoped-оператора.
func (s *Service) EditScopedName(callerID, operatorID, name string) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	ops, err := s.store.LoadOperators()
	if err != nil {
		return err
	}
	i := ops.FindScoped(operatorID)
	if i < 0 {
		return fault.NotFoundf("operator %s", operatorID)
	}
	ops.Scoped[i].Name = name
	return s.store.SaveOperators(ops)
}

// EditScopedDevices замещает allow-list целиком (не сливает).
func (s *Service) EditScopedDevices(callerID, operatorID string, deviceIDs []string) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	ops, err := s.store.LoadOperators()
	if err != nil {
		return err
	}
	i := ops.FindScoped(operatorID)
	if i < 0 {
		return fault.NotFoundf("operator %s", operatorID)
	}
	ops.Scoped[i].AllowedDevices = append([]string{}, deviceIDs...)
	return s.store.SaveOperators(ops)
}

// DeleteScoped удаляет scoped-оператора.
func (s *Service) DeleteScoped(callerID, operatorID string) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	ops, err := s.store.LoadOperators()
	if err != nil {
		return err
	}
	i := ops.FindScoped(operatorID)
	if i < 0 {
		return fault.NotFoundf("operator %s", operatorID)
	}
	ops.Scoped = append(ops.Scoped[:i], ops.Scoped[i+1:]...)
	if err := s.store.SaveOperators(ops); err != nil {
		return err
	}
	s.log.Infof("scoped operator deleted: id=%s by=%s", operatorID, callerID)
	return nil
}

// Promote переводит scoped-оператора в full. Перенос, не копия:
// scoped-запись удаляется, allow-list отбрасывается (full видит всё).
func (s *Service) Promote(callerID, operatorID string) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	ops, err := s.store.LoadOperators()
	if err != nil {
		return err
	}
	i := ops.FindScoped(operatorID)
	if i < 0 {
		return fault.NotFoundf("operator %s", operatorID)
	}
	ops.Scoped = append(ops.Scoped[:i], ops.Scoped[i+1:]...)
	if !ops.HasFull(operatorID) {
		ops.Full = append(ops.Full, operatorID)
	}
	if err := s.store.SaveOperators(ops); err != nil {
		return err
	}
	s.log.Infof("operator promoted to full: id=%s by=%s", operatorID, callerID)
	return nil
}

// Demote переводит full-оператора в scoped со СВЕЖИМ пустым allow-list:
// прежний доступ не переносится, выдаётся заново явными грантами.
func (s *Service) Demote(callerID, operatorID, name string) error {
	if err := s.access.RequireFull(callerID); err != nil {
		return err
	}
	ops, err := s.store.LoadOperators()
	if err != nil {
		return err
	}
	if !ops.HasFull(operatorID) {
		return fault.NotFoundf("operator %s not in full tier", operatorID)
	}
	kept := ops.Full[:0]
	for _, id := range ops.Full {
		if id != operatorID {
			kept = append(kept, id)
		}
	}
	ops.Full = kept
	ops.Scoped = append(ops.Scoped, models.ScopedOperator{
		ID:             operatorID,
		Name:           name,
		AllowedDevices: []string{},
	})
	if err := s.store.SaveOperators(ops); err != nil {
		return err
	}
	s.log.Infof("operator demoted to scoped: id=%s by=%s", operatorID, callerID)
	return nil
}

// ListOperators — содержимое документа прав (для слоя оркестрации).
func (s *Service) ListOperators(callerID string) (*models.OperatorDocument, error) {
	if err := s.access.RequireFull(callerID); err != nil {
		return nil, err
	}
	return s.store.LoadOperators()
}

// trimmedIPs — нормализация списка CIDR из пользовательского ввода.
func trimmedIPs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
