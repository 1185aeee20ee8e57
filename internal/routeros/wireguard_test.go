package routeros

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnhub/internal/fault"
	"vpnhub/internal/models"
)

const testServerPub = "nq6qGmfJ8aoiUxLO5DbWIv8zMEGqaGkuGq8Z14MRd2E="

func TestNextPeerAddress(t *testing.T) {
	addr, dns, err := nextPeerAddress([]models.WireGuardPeer{
		{AllowedAddress: "10.0.0.1/32"},
		{AllowedAddress: "10.0.0.5/32"},
	})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.6/32", addr)
	assert.Equal(t, "10.0.0.1", dns)
}

func TestNextPeerAddressNoPeers(t *testing.T) {
	// bootstrap-пути нет: пустое устройство — ошибка, не ".1"
	_, _, err := nextPeerAddress(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrValidation))
	assert.Contains(t, err.Error(), "cannot determine subnet")
}

func TestNextPeerAddressSkipsForeignPrefixes(t *testing.T) {
	// несколько подсетей не поддерживаются: максимум ищется только
	// в первом встреченном префиксе
	addr, _, err := nextPeerAddress([]models.WireGuardPeer{
		{AllowedAddress: "10.0.0.2/32"},
		{AllowedAddress: "10.1.0.250/32"},
		{AllowedAddress: "10.0.0.7/32"},
	})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.8/32", addr)
}

func TestNextPeerAddressIgnoresNonHostRoutes(t *testing.T) {
	_, _, err := nextPeerAddress([]models.WireGuardPeer{
		{AllowedAddress: "10.0.0.0/24"},
		{AllowedAddress: ""},
	})
	assert.True(t, errors.Is(err, fault.ErrValidation))
}

func TestCreatePeer(t *testing.T) {
	f := &fakeRouterOS{
		ifacePub: testServerPub,
		peers: []models.WireGuardPeer{
			{ID: "*P1", Name: "bob", AllowedAddress: "10.10.10.2/32"},
		},
	}
	cl := newFakeClient(t, f)

	pc, err := cl.CreatePeer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", pc.Name)

	require.Len(t, f.peers, 2)
	created := f.peers[1]
	assert.Equal(t, "wg0", created.Interface)
	assert.Equal(t, "10.10.10.3/32", created.AllowedAddress)
	assert.NotEmpty(t, created.PublicKey)
	assert.NotEmpty(t, created.PrivateKey)
	// строковый "false" в теле создания — wire-конвенция устройства
	assert.Contains(t, f.lastPutBody, `"disabled":"false"`)

	// клиентский конфиг собран из тех же ключей и адреса
	assert.Contains(t, pc.Conf, "PrivateKey = "+created.PrivateKey)
	assert.Contains(t, pc.Conf, "Address = 10.10.10.3/32")
	assert.Contains(t, pc.Conf, "DNS = 10.10.10.1")
	assert.Contains(t, pc.Conf, "PublicKey = "+testServerPub)
	assert.Contains(t, pc.Conf, "AllowedIPs = 0.0.0.0/0, ::/0")
	assert.Contains(t, pc.Conf, "Endpoint = vpn.example.com:13231")
	assert.Contains(t, pc.Conf, "PersistentKeepalive = 20")
}

func TestCreatePeerRejectsDuplicateName(t *testing.T) {
	f := &fakeRouterOS{
		ifacePub: testServerPub,
		peers:    []models.WireGuardPeer{{ID: "*P1", Name: "alice", AllowedAddress: "10.10.10.2/32"}},
	}
	cl := newFakeClient(t, f)

	_, err := cl.CreatePeer(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConflict))
	assert.Len(t, f.peers, 1)
}

func TestCreatePeerWithoutServerKey(t *testing.T) {
	f := &fakeRouterOS{
		peers: []models.WireGuardPeer{{ID: "*P1", Name: "bob", AllowedAddress: "10.10.10.2/32"}},
	}
	cl := newFakeClient(t, f)

	_, err := cl.CreatePeer(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrPrecondition))
}

func TestCreatePeerWithoutSubnet(t *testing.T) {
	f := &fakeRouterOS{ifacePub: testServerPub}
	cl := newFakeClient(t, f)

	_, err := cl.CreatePeer(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrValidation))
	assert.Empty(t, f.peers)
}

func TestRegenerateConfigReusesStoredKeyAndAddress(t *testing.T) {
	f := &fakeRouterOS{
		ifacePub: testServerPub,
		peers: []models.WireGuardPeer{{
			ID:             "*P1",
			Name:           "alice",
			PrivateKey:     "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
			AllowedAddress: "10.10.10.7/32",
		}},
	}
	cl := newFakeClient(t, f)

	pc, err := cl.RegenerateConfig(context.Background(), "*P1")
	require.NoError(t, err)
	assert.Equal(t, "alice", pc.Name)
	assert.Contains(t, pc.Conf, "PrivateKey = AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	assert.Contains(t, pc.Conf, "Address = 10.10.10.7/32")
	assert.Contains(t, pc.Conf, "DNS = 10.10.10.1")
	// ключи не перегенерируются
	assert.Equal(t, 1, strings.Count(pc.Conf, "PrivateKey"))
}

func TestRegenerateConfigWithoutPrivateKey(t *testing.T) {
	f := &fakeRouterOS{
		ifacePub: testServerPub,
		peers:    []models.WireGuardPeer{{ID: "*P1", Name: "manual", AllowedAddress: "10.10.10.9/32"}},
	}
	cl := newFakeClient(t, f)

	_, err := cl.RegenerateConfig(context.Background(), "*P1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrPrecondition))
}

func TestDisablePeer(t *testing.T) {
	f := &fakeRouterOS{
		peers: []models.WireGuardPeer{{ID: "*P1", Name: "alice", Disabled: "false"}},
	}
	cl := newFakeClient(t, f)

	name, err := cl.DisablePeer(context.Background(), "*P1")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
	assert.Equal(t, "true", f.peers[0].Disabled)
	assert.Contains(t, f.lastPatchBody, `"disabled":"true"`)
}

func TestListPeersSorted(t *testing.T) {
	f := &fakeRouterOS{peers: []models.WireGuardPeer{
		{ID: "*P1", Name: "Zed"},
		{ID: "*P2", Name: "amy"},
		{ID: "*P3", Name: "Bob"},
	}}
	cl := newFakeClient(t, f)

	peers, err := cl.ListPeers(context.Background())
	require.NoError(t, err)
	require.Len(t, peers, 3)
	assert.Equal(t, "amy", peers[0].Name)
	assert.Equal(t, "Bob", peers[1].Name)
	assert.Equal(t, "Zed", peers[2].Name)
}
