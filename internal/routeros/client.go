package routeros

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"vpnhub/internal/fault"
	"vpnhub/internal/models"
)

// DefaultTimeout — фиксированный таймаут обращений к устройству.
const DefaultTimeout = 5 * time.Second

// Client — REST-клиент одного устройства. Все вызовы синхронны и
// блокируют вызывающего не дольше таймаута; повторов и бэкоффа нет,
// первая же ошибка транспорта возвращается как есть.
//
// Проверка TLS-сертификата выключена: устройства ходят с самоподписанными
// сертификатами, это принятый риск исходной системы, не чинить молча.
type Client struct {
	dev  models.Device
	base string
	http *http.Client
}

// NewClient строит клиента из записи устройства: base URL + basic auth.
func NewClient(dev *models.Device, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		dev:  *dev,
		base: strings.TrimRight(dev.Host, "/") + "/rest",
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// do выполняет один запрос. body и out могут быть nil. Любая сетевая
// ошибка или не-2xx ответ превращаются в fault.ErrTransport с текстом,
// пригодным для показа оператору.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("routeros encode: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("routeros request: %w", err)
	}
	req.SetBasicAuth(c.dev.Username, c.dev.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fault.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fault.Transport(fmt.Errorf("%s %s: %s: %s",
			method, path, resp.Status, strings.TrimSpace(string(detail))))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fault.Transport(fmt.Errorf("decode %s %s: %w", method, path, err))
		}
	}
	return nil
}

// createLocks — процессные замки "устройство|имя" вокруг пары
// проверка-существования → создание. Сужают, но не закрывают гонку:
// другой процесс или реплика всё ещё может проскочить, дубликат тогда
// отбрасывает само устройство.
var createLocks = struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}{m: make(map[string]*sync.Mutex)}

func (c *Client) lockCreate(name string) func() {
	key := c.dev.ID + "|" + name
	createLocks.mu.Lock()
	l, ok := createLocks.m[key]
	if !ok {
		l = &sync.Mutex{}
		createLocks.m[key] = l
	}
	createLocks.mu.Unlock()
	l.Lock()
	return l.Unlock
}
