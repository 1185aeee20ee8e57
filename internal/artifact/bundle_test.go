package artifact

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) (*Generator, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	g, err := NewGenerator(fs, "scratch")
	require.NoError(t, err)
	return g, fs
}

func TestPeerBundleProducesConfAndQR(t *testing.T) {
	g, fs := newTestGenerator(t)

	b, err := g.PeerBundle("alice", "[Interface]\nPrivateKey = x\n")
	require.NoError(t, err)
	require.Len(t, b.Files, 2)
	assert.Equal(t, "alice.conf", b.Files[0].Name)
	assert.Equal(t, "alice.png", b.Files[1].Name)

	conf, err := b.Read(0)
	require.NoError(t, err)
	assert.Contains(t, string(conf), "PrivateKey")

	png, err := b.Read(1)
	require.NoError(t, err)
	// PNG-сигнатура
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	// Cleanup убирает оба файла на любом пути выхода
	paths := []string{b.Files[0].Path, b.Files[1].Path}
	b.Cleanup()
	for _, p := range paths {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.False(t, ok, "file %s survived cleanup", p)
	}
	// повторный Cleanup безопасен
	b.Cleanup()
}

func TestProfileBundle(t *testing.T) {
	g, fs := newTestGenerator(t)

	b, err := g.ProfileBundle([]byte("profile-bytes"), "alice.ovpn")
	require.NoError(t, err)
	require.Len(t, b.Files, 1)
	assert.Equal(t, "alice.ovpn", b.Files[0].Name)

	raw, err := b.Read(0)
	require.NoError(t, err)
	assert.Equal(t, "profile-bytes", string(raw))

	path := b.Files[0].Path
	b.Cleanup()
	ok, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRenderQR(t *testing.T) {
	png, err := RenderQR("wireguard config text")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
