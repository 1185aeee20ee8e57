package routeros

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"vpnhub/internal/fault"
	"vpnhub/internal/models"
)

// serviceOVPN — значение service, которым помечаются наши PPP-секреты.
const serviceOVPN = "ovpn"

// ListActiveSessions возвращает живые PPP-сессии, отсортированные по
// имени без учёта регистра. Активная сессия — отдельный серверный
// ресурс: её наличие не связано с флагом disabled секрета.
func (c *Client) ListActiveSessions(ctx context.Context) ([]models.PPPActive, error) {
	var sessions []models.PPPActive
	if err := c.do(ctx, http.MethodGet, "/ppp/active", nil, &sessions); err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return strings.ToLower(sessions[i].Name) < strings.ToLower(sessions[j].Name)
	})
	return sessions, nil
}

// ListEnabledSecrets — невыключенные ovpn-секреты, сортировка как выше.
func (c *Client) ListEnabledSecrets(ctx context.Context) ([]models.PPPSecret, error) {
	var secrets []models.PPPSecret
	if err := c.do(ctx, http.MethodGet, "/ppp/secret", nil, &secrets); err != nil {
		return nil, err
	}
	enabled := secrets[:0]
	for _, s := range secrets {
		if s.Disabled == "false" && s.Service == serviceOVPN {
			enabled = append(enabled, s)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return strings.ToLower(enabled[i].Name) < strings.ToLower(enabled[j].Name)
	})
	return enabled, nil
}

// SecretExists проверяет имя полным сканом списка секретов. Точечного
// запроса по имени у RouterOS REST нет, O(n) на проверку.
func (c *Client) SecretExists(ctx context.Context, name string) (bool, error) {
	var secrets []models.PPPSecret
	if err := c.do(ctx, http.MethodGet, "/ppp/secret", nil, &secrets); err != nil {
		return false, err
	}
	for _, s := range secrets {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateSecret создаёт ovpn-секрет со сгенерированным паролем под
// профилем устройства. Проверка существования и создание — два
// отдельных запроса (у устройства нет compare-and-swap): процессный
// замок сужает гонку, межпроцессная остаётся.
func (c *Client) CreateSecret(ctx context.Context, name string) (*models.Credentials, error) {
	unlock := c.lockCreate(name)
	defer unlock()

	exists, err := c.SecretExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fault.Conflictf("secret %s", name)
	}

	password := GeneratePassword(passwordLength)
	secret := models.PPPSecret{
		Name:     name,
		Password: password,
		Service:  serviceOVPN,
		Profile:  c.dev.OpenVPN.Profile,
	}
	// RouterOS создаёт записи через PUT на коллекцию, не POST.
	if err := c.do(ctx, http.MethodPut, "/ppp/secret", secret, nil); err != nil {
		return nil, err
	}
	return &models.Credentials{Name: name, Password: password}, nil
}

// DeactivateSession рвёт живую сессию по имени: находит её в /ppp/active
// и удаляет по серверному id. Отсутствие среди активных — NotFound,
// не ошибка транспорта.
func (c *Client) DeactivateSession(ctx context.Context, name string) error {
	var sessions []models.PPPActive
	if err := c.do(ctx, http.MethodGet, "/ppp/active", nil, &sessions); err != nil {
		return err
	}
	for _, s := range sessions {
		if s.Name == name && s.ID != "" {
			return c.do(ctx, http.MethodDelete, "/ppp/active/"+s.ID, nil, nil)
		}
	}
	return fault.NotFoundf("session %s not among active", name)
}

// DisableSecret помечает секрет disabled. Обратной операции нет:
// жизненный цикл учётки односторонний, Active → Disabled.
func (c *Client) DisableSecret(ctx context.Context, name string) error {
	var secrets []models.PPPSecret
	if err := c.do(ctx, http.MethodGet, "/ppp/secret", nil, &secrets); err != nil {
		return err
	}
	for _, s := range secrets {
		if s.Name == name && s.Service == serviceOVPN && s.ID != "" {
			// строковый "true" — так требует wire-протокол устройства
			patch := map[string]string{"disabled": "true"}
			return c.do(ctx, http.MethodPatch, "/ppp/secret/"+s.ID, patch, nil)
		}
	}
	return fault.NotFoundf("secret %s", name)
}

// FetchCredentials достаёт пароль существующего ovpn-секрета (для
// повторной выдачи профиля).
func (c *Client) FetchCredentials(ctx context.Context, name string) (*models.Credentials, error) {
	var secrets []models.PPPSecret
	if err := c.do(ctx, http.MethodGet, "/ppp/secret", nil, &secrets); err != nil {
		return nil, err
	}
	for _, s := range secrets {
		if s.Name == name && s.Service == serviceOVPN {
			if s.Password == "" {
				return nil, fault.Preconditionf("secret %s has no readable password", name)
			}
			return &models.Credentials{Name: name, Password: s.Password}, nil
		}
	}
	return nil, fault.NotFoundf("secret %s", name)
}
