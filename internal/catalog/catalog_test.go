package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamesFallBackToID(t *testing.T) {
	assert.Equal(t, "Data Breach", IncidentTypeName("data_breach"))
	assert.Equal(t, "NIST Cybersecurity Framework", FrameworkName("nist"))
	assert.Equal(t, "zero_day", IncidentTypeName("zero_day"))
	assert.Equal(t, "iso27001", FrameworkName("iso27001"))
}

func TestListsAreCopies(t *testing.T) {
	list := Frameworks()
	list[0].Name = "changed"
	assert.Equal(t, "NERC CIP-008", FrameworkName("nerc_cip"))
	assert.Len(t, IncidentTypes(), 7)
	assert.Len(t, Frameworks(), 7)
}

func TestMembership(t *testing.T) {
	assert.True(t, IsIncidentType("physical_breach"))
	assert.False(t, IsIncidentType(""))
	assert.True(t, IsFramework("pci_dss"))
	assert.False(t, IsFramework("PCI_DSS"))
}
