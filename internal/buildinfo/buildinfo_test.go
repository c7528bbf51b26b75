package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData_Defaults(t *testing.T) {
	orig := ContractAddress
	t.Cleanup(func() { ContractAddress = orig })
	ContractAddress = ""

	var buf bytes.Buffer
	PrintBuildData(&buf)

	out := buf.String()
	assert.Contains(t, out, "Build version: N/A")
	assert.Contains(t, out, "Build commit: N/A")
	assert.NotContains(t, out, "Marketplace contract")
}

func TestPrintBuildData_WithContract(t *testing.T) {
	orig := ContractAddress
	t.Cleanup(func() { ContractAddress = orig })
	ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

	var buf bytes.Buffer
	PrintBuildData(&buf)

	assert.Contains(t, buf.String(), "Marketplace contract: 0x5FbDB2315678afecb367f032d93F642f64180aa3")
}
