package wireguard

import (
	"fmt"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// KeyPair — клиентская пара X25519 в base64, как её принимает RouterOS.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

func GenerateKeyPair() (KeyPair, error) {
	priv, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("wireguard keygen: %w", err)
	}
	return KeyPair{
		PrivateKey: priv.String(),
		PublicKey:  priv.PublicKey().String(),
	}, nil
}

// ClientConfig — данные для клиентского .conf. Рендер повторяет формат,
// который понимают официальные клиенты WireGuard (и их QR-импорт).
type ClientConfig struct {
	PrivateKey string
	Address    string // выделенный /32
	DNS        string
	ServerPub  string
	AllowedIPs []string // маршруты, заворачиваемые в туннель
	Endpoint   string   // host:port
	Keepalive  int
}

func (c ClientConfig) Render() string {
	return fmt.Sprintf(`[Interface]
ListenPort = 51820
PrivateKey = %s
Address = %s
DNS = %s

[Peer]
PublicKey = %s
AllowedIPs = %s
Endpoint = %s
PersistentKeepalive = %d
`, c.PrivateKey, c.Address, c.DNS, c.ServerPub, strings.Join(c.AllowedIPs, ", "), c.Endpoint, c.Keepalive)
}
