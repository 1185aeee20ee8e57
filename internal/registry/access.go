package registry

import (
	"vpnhub/internal/fault"
	"vpnhub/internal/models"
)

// Tier — уровень доступа оператора.
type Tier int

const (
	TierNone Tier = iota
	TierFull
	TierScoped
)

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierScoped:
		return "scoped"
	default:
		return "none"
	}
}

// Access отвечает на два вопроса: какой уровень у оператора и какие
// устройства ему видны. Всегда читает реестр заново — уровень и список
// актуальны на момент вызова, кэша нет.
type Access struct {
	store *Store
}

func NewAccess(store *Store) *Access { return &Access{store: store} }

// ResolveTier ищет оператора сперва в full-уровне, потом в scoped.
// Для scoped возвращается копия записи.
func (a *Access) ResolveTier(operatorID string) (Tier, *models.ScopedOperator, error) {
	doc, err := a.store.LoadOperators()
	if err != nil {
		return TierNone, nil, err
	}
	if doc.HasFull(operatorID) {
		return TierFull, nil, nil
	}
	if i := doc.FindScoped(operatorID); i >= 0 {
		rec := doc.Scoped[i]
		rec.AllowedDevices = append([]string(nil), rec.AllowedDevices...)
		return TierScoped, &rec, nil
	}
	return TierNone, nil, nil
}

// AllowedDevices возвращает id устройств, доступных оператору.
// Full — все устройства реестра на момент вызова, Scoped — сохранённый
// allow-list, None — пусто.
func (a *Access) AllowedDevices(operatorID string) ([]string, error) {
	tier, rec, err := a.ResolveTier(operatorID)
	if err != nil {
		return nil, err
	}
	switch tier {
	case TierFull:
		devs, err := a.store.LoadDevices()
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(devs.Devices))
		for _, d := range devs.Devices {
			ids = append(ids, d.ID)
		}
		return ids, nil
	case TierScoped:
		return rec.AllowedDevices, nil
	default:
		return []string{}, nil
	}
}

// RequireFull — общий гейт всех мутирующих операций реестра.
func (a *Access) RequireFull(operatorID string) error {
	tier, _, err := a.ResolveTier(operatorID)
	if err != nil {
		return err
	}
	if tier != TierFull {
		return fault.Denied("full tier required")
	}
	return nil
}
