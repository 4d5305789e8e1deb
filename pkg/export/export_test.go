package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Saldo de férias",
		Headers: []string{"Colaborador", "Disponível"},
		Rows: []map[string]string{
			{"Colaborador": "João Conceição", "Disponível": "20"},
			{"Colaborador": "Ana; Maria", "Disponível": "0"},
		},
		Numeric: map[string]bool{"Disponível": true},
		Footer:  "gerado em 2025-01-01",
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(';').Render(sampleDataset())
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, []byte("\ufeff")))
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(out), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Colaborador;Disponível", lines[0])
	assert.Equal(t, "João Conceição;20", lines[1])
	assert.Equal(t, `"Ana; Maria";0`, lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter(0).Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}
