package forward

import (
	"testing"

	"github.com/arghyadipchak/mssngr/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndLookup(t *testing.T) {
	table := Build([]config.Peer{
		{ID: "N2", Addr: "http://n2/", Topics: []string{"news", "sports"}},
		{ID: "N3", Addr: "http://n3/", Topics: []string{"weather"}},
	})

	p, ok := table.Lookup("news")
	require.True(t, ok)
	assert.Equal(t, "N2", p.ID)
	assert.Equal(t, "http://n2/", p.Addr)

	_, ok = table.Lookup("unknown")
	assert.False(t, ok)
}

func TestBuildLastPeerWinsOnCollision(t *testing.T) {
	table := Build([]config.Peer{
		{ID: "N2", Addr: "http://n2/", Topics: []string{"news"}},
		{ID: "N3", Addr: "http://n3/", Topics: []string{"news"}},
	})

	p, ok := table.Lookup("news")
	require.True(t, ok)
	assert.Equal(t, "N3", p.ID)
}
