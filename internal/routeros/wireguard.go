package routeros

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vpnhub/internal/fault"
	"vpnhub/internal/models"
	"vpnhub/internal/vpn/wireguard"
)

// peerComment проставляется всем пирам, созданным контроллером.
const peerComment = "managed by vpnhub"

// PeerConfig — результат создания/регенерации пира: готовый текст
// клиентского конфига (из него же строится QR).
type PeerConfig struct {
	Name string
	Conf string
}

// ListPeers возвращает пиров интерфейса, сортировка по имени без
// учёта регистра.
func (c *Client) ListPeers(ctx context.Context) ([]models.WireGuardPeer, error) {
	var peers []models.WireGuardPeer
	if err := c.do(ctx, http.MethodGet, "/interface/wireguard/peers", nil, &peers); err != nil {
		return nil, err
	}
	sort.SliceStable(peers, func(i, j int) bool {
		return strings.ToLower(peers[i].Name) < strings.ToLower(peers[j].Name)
	})
	return peers, nil
}

func (c *Client) getPeer(ctx context.Context, peerID string) (*models.WireGuardPeer, error) {
	var peer models.WireGuardPeer
	if err := c.do(ctx, http.MethodGet, "/interface/wireguard/peers/"+peerID, nil, &peer); err != nil {
		return nil, err
	}
	return &peer, nil
}

// DisablePeer выключает пира по серверному id. Возвращает его имя —
// для человекочитаемого ответа оператору.
func (c *Client) DisablePeer(ctx context.Context, peerID string) (string, error) {
	peer, err := c.getPeer(ctx, peerID)
	if err != nil {
		return "", err
	}
	patch := map[string]string{"disabled": "true"}
	if err := c.do(ctx, http.MethodPatch, "/interface/wireguard/peers/"+peerID, patch, nil); err != nil {
		return "", err
	}
	return peer.Name, nil
}

// serverPublicKey читает публичный ключ WireGuard-интерфейса устройства.
func (c *Client) serverPublicKey(ctx context.Context) (string, error) {
	var iface models.WireGuardInterface
	path := "/interface/wireguard/" + c.dev.WireGuard.InterfaceName
	if err := c.do(ctx, http.MethodGet, path, nil, &iface); err != nil {
		return "", err
	}
	if iface.PublicKey == "" {
		return "", fault.Preconditionf("interface %s has no public key", c.dev.WireGuard.InterfaceName)
	}
	return iface.PublicKey, nil
}

var peerAddrRe = regexp.MustCompile(`^(\d+\.\d+\.\d+)\.(\d+)/32`)

// nextPeerAddress выводит адрес нового пира из адресов существующих:
// берётся префикс A.B.C первого пира с адресом вида A.B.C.D/32,
// следующий адрес — максимум последнего октета в этом префиксе плюс
// один, DNS — A.B.C.1. Устройства с пирами в нескольких подсетях не
// поддерживаются: чужие префиксы при поиске максимума игнорируются.
// Для устройства без единого подходящего пира подсеть вывести не из
// чего — bootstrap-пути нет, это ошибка валидации.
func nextPeerAddress(peers []models.WireGuardPeer) (addr, dns string, err error) {
	var prefix string
	maxOctet := 0
	for _, p := range peers {
		m := peerAddrRe.FindStringSubmatch(p.AllowedAddress)
		if m == nil {
			continue
		}
		if prefix == "" {
			prefix = m[1]
		}
		if m[1] != prefix {
			continue
		}
		if o, e := strconv.Atoi(m[2]); e == nil && o > maxOctet {
			maxOctet = o
		}
	}
	if prefix == "" {
		return "", "", fault.Invalidf("cannot determine subnet from existing peers")
	}
	return fmt.Sprintf("%s.%d/32", prefix, maxOctet+1), prefix + ".1", nil
}

// CreatePeer создаёт пира: свежая пара X25519, адрес из подсети
// существующих пиров, запись на устройстве и клиентский конфиг.
// Exists-check и создание не атомарны против устройства — см. замок
// в client.go.
func (c *Client) CreatePeer(ctx context.Context, name string) (*PeerConfig, error) {
	unlock := c.lockCreate(name)
	defer unlock()

	peers, err := c.ListPeers(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range peers {
		if p.Name == name {
			return nil, fault.Conflictf("peer %s", name)
		}
	}

	keys, err := wireguard.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	serverPub, err := c.serverPublicKey(ctx)
	if err != nil {
		return nil, err
	}
	addr, dns, err := nextPeerAddress(peers)
	if err != nil {
		return nil, err
	}

	peer := models.WireGuardPeer{
		Interface:      c.dev.WireGuard.InterfaceName,
		Name:           name,
		PublicKey:      keys.PublicKey,
		PrivateKey:     keys.PrivateKey,
		AllowedAddress: addr,
		Disabled:       "false",
		Comment:        peerComment,
	}
	if err := c.do(ctx, http.MethodPut, "/interface/wireguard/peers", peer, nil); err != nil {
		return nil, err
	}

	conf := wireguard.ClientConfig{
		PrivateKey: keys.PrivateKey,
		Address:    addr,
		DNS:        dns,
		ServerPub:  serverPub,
		AllowedIPs: c.dev.WireGuard.AllowedIPs,
		Endpoint:   c.dev.WireGuard.Endpoint,
		Keepalive:  20,
	}
	return &PeerConfig{Name: name, Conf: conf.Render()}, nil
}

// RegenerateConfig пересобирает конфиг существующего пира из его
// сохранённых ключа и адреса — ничего не генерирует заново. Пир,
// заведённый без private-key (например, вручную), пересобрать нельзя.
func (c *Client) RegenerateConfig(ctx context.Context, peerID string) (*PeerConfig, error) {
	peer, err := c.getPeer(ctx, peerID)
	if err != nil {
		return nil, err
	}
	name := peer.Name
	if name == "" {
		name = "unknown"
	}
	if peer.PrivateKey == "" {
		return nil, fault.Preconditionf("peer %s has no stored private key", name)
	}
	m := peerAddrRe.FindStringSubmatch(peer.AllowedAddress)
	if m == nil {
		return nil, fault.Invalidf("cannot derive subnet from allowed-address %q", peer.AllowedAddress)
	}
	serverPub, err := c.serverPublicKey(ctx)
	if err != nil {
		return nil, err
	}

	conf := wireguard.ClientConfig{
		PrivateKey: peer.PrivateKey,
		Address:    peer.AllowedAddress,
		DNS:        m[1] + ".1",
		ServerPub:  serverPub,
		AllowedIPs: c.dev.WireGuard.AllowedIPs,
		Endpoint:   c.dev.WireGuard.Endpoint,
		Keepalive:  20,
	}
	return &PeerConfig{Name: name, Conf: conf.Render()}, nil
}
