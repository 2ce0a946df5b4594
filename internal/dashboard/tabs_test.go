package dashboard

import (
	"testing"

	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabKeysRoundTrip(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range AllTabs {
		key := id.Key()
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true

		got, ok := ParseTab(key)
		require.True(t, ok)
		assert.Equal(t, id, got)
	}
	_, ok := ParseTab("Overview")
	assert.False(t, ok, "keys are lower-case only")
}

func TestNetworkRows(t *testing.T) {
	var n portal.Networking
	n.SubnetList.Subnets = []portal.Subnet{{Name: "master", AddressPrefix: "10.0.0.0/24"}}
	n.IngressProfileList.IngressProfiles = []portal.IngressProfile{{Name: "default", IP: "1.2.3.4"}}
	n.ClusterNetworkList.ClusterNetworks = []portal.ClusterNetwork{{Name: "default", NetworkCIDR: "10.128.0.0/14"}}

	rows := NetworkRows(n)
	require.Len(t, rows, 3)
	assert.Equal(t, "Cluster Network", rows[0].Kind)
	assert.Equal(t, "Subnet", rows[1].Kind)
	assert.Equal(t, "10.0.0.0/24", rows[1].Summary)
	assert.Equal(t, "Ingress Profile", rows[2].Kind)
	assert.Equal(t, "1.2.3.4", rows[2].Summary)
	assert.NotEmpty(t, rows[2].Fields())
}

func TestResourceTab_DrillDown(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)
	m = press(t, m, "enter", "tab")
	require.Equal(t, TabNodes, m.ActiveTab())

	m = press(t, m, "down", "enter")
	assert.Contains(t, m.viewport.View(), "esc to go back")
	assert.Contains(t, m.viewport.View(), "worker-a")

	// Esc closes the drill-down first, then the panel.
	m = press(t, m, "esc")
	_, open := m.Selected()
	assert.True(t, open)
	assert.Contains(t, m.viewport.View(), "Showing 2 items")

	m = press(t, m, "esc")
	_, open = m.Selected()
	assert.False(t, open)
}

func TestRenderFields_Undefined(t *testing.T) {
	out := renderFields([]portal.Field{{Label: "Name", Value: "c1"}, {Label: "Console", Value: " "}}, 60)
	assert.Contains(t, out, "c1")
	assert.Contains(t, out, "Undefined")
}

func TestCell(t *testing.T) {
	assert.Equal(t, "ab  ", cell("ab", 4))
	assert.Equal(t, "abc…", cell("abcdef", 4))
	assert.Equal(t, "a", cell("abc", 1))
}
