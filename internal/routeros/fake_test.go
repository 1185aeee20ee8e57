package routeros

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"vpnhub/internal/models"
)

// fakeRouterOS — REST-эмулятор устройства для тестов: ppp/secret,
// ppp/active и wireguard-пиры в памяти. Сырые тела PUT/PATCH
// сохраняются для проверки wire-конвенций (строковые булевы и т.п.).
type fakeRouterOS struct {
	mu       sync.Mutex
	secrets  []models.PPPSecret
	active   []models.PPPActive
	peers    []models.WireGuardPeer
	ifacePub string

	lastPutBody   string
	lastPatchBody string
}

func (f *fakeRouterOS) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, "/rest")
		switch {
		case path == "/ppp/secret" && r.Method == http.MethodGet:
			writeBody(w, f.secrets)
		case path == "/ppp/secret" && r.Method == http.MethodPut:
			var s models.PPPSecret
			f.lastPutBody = readBody(r, &s)
			s.ID = fmt.Sprintf("*S%d", len(f.secrets)+1)
			if s.Disabled == "" {
				s.Disabled = "false"
			}
			f.secrets = append(f.secrets, s)
			writeBody(w, s)
		case strings.HasPrefix(path, "/ppp/secret/") && r.Method == http.MethodPatch:
			id := strings.TrimPrefix(path, "/ppp/secret/")
			var patch map[string]string
			f.lastPatchBody = readBody(r, &patch)
			for i := range f.secrets {
				if f.secrets[i].ID == id {
					if v, ok := patch["disabled"]; ok {
						f.secrets[i].Disabled = v
					}
					writeBody(w, f.secrets[i])
					return
				}
			}
			http.NotFound(w, r)
		case path == "/ppp/active" && r.Method == http.MethodGet:
			writeBody(w, f.active)
		case strings.HasPrefix(path, "/ppp/active/") && r.Method == http.MethodDelete:
			id := strings.TrimPrefix(path, "/ppp/active/")
			for i := range f.active {
				if f.active[i].ID == id {
					f.active = append(f.active[:i], f.active[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			http.NotFound(w, r)
		case path == "/interface/wireguard/peers" && r.Method == http.MethodGet:
			writeBody(w, f.peers)
		case path == "/interface/wireguard/peers" && r.Method == http.MethodPut:
			var p models.WireGuardPeer
			f.lastPutBody = readBody(r, &p)
			p.ID = fmt.Sprintf("*P%d", len(f.peers)+1)
			f.peers = append(f.peers, p)
			writeBody(w, p)
		case strings.HasPrefix(path, "/interface/wireguard/peers/"):
			id := strings.TrimPrefix(path, "/interface/wireguard/peers/")
			for i := range f.peers {
				if f.peers[i].ID != id {
					continue
				}
				switch r.Method {
				case http.MethodGet:
					writeBody(w, f.peers[i])
				case http.MethodPatch:
					var patch map[string]string
					f.lastPatchBody = readBody(r, &patch)
					if v, ok := patch["disabled"]; ok {
						f.peers[i].Disabled = v
					}
					writeBody(w, f.peers[i])
				default:
					http.Error(w, "method", http.StatusMethodNotAllowed)
				}
				return
			}
			http.NotFound(w, r)
		case strings.HasPrefix(path, "/interface/wireguard/") && r.Method == http.MethodGet:
			name := strings.TrimPrefix(path, "/interface/wireguard/")
			writeBody(w, models.WireGuardInterface{Name: name, PublicKey: f.ifacePub})
		default:
			http.NotFound(w, r)
		}
	})
}

func writeBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func readBody(r *http.Request, v any) string {
	raw, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(raw, v)
	return string(raw)
}

// newFakeClient поднимает TLS-сервер с самоподписанным сертификатом:
// заодно проверяется, что клиент его терпит.
func newFakeClient(t *testing.T, f *fakeRouterOS) *Client {
	t.Helper()
	ts := httptest.NewTLSServer(f.handler())
	t.Cleanup(ts.Close)

	dev := &models.Device{
		ID:       "rtr_test0001",
		Name:     "test",
		Host:     ts.URL,
		Username: "api",
		Password: "pass",
		OpenVPN:  models.OpenVPNSettings{Profile: "vpn-profile"},
		WireGuard: models.WireGuardSettings{
			InterfaceName: "wg0",
			Endpoint:      "vpn.example.com:13231",
			AllowedIPs:    []string{"0.0.0.0/0", "::/0"},
		},
	}
	return NewClient(dev, 5*time.Second)
}
