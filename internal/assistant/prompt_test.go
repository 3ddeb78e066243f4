package assistant

import (
	"strings"
	"testing"

	"naalli/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	bookings := []*models.Booking{
		{Date: "15/12/2025", Time: "07:00", Kind: models.KindStrength, Name: "Ana Souza"},
		{Date: "15/12/2025", Time: "18:00", Kind: models.KindTreadmill, Name: "Silva, Bruno"},
	}

	prompt, err := BuildPrompt(bookings, "  Qual o horário de pico?  ")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "Atue como um consultor de negócios de academia. Analise os dados (CSV):\nData,Horario,Tipo,Nome\n"))
	assert.Contains(t, prompt, "15/12/2025,07:00,Treino,Ana Souza\n")
	// commas inside names are quoted
	assert.Contains(t, prompt, `15/12/2025,18:00,Esteira,"Silva, Bruno"`)
	assert.Contains(t, prompt, "PERGUNTA: Qual o horário de pico?\n")
	assert.Contains(t, prompt, "3. Responda em Português.")
}

func TestSuggestions(t *testing.T) {
	s := Suggestions()
	require.Len(t, s, 6)
	s[0] = "changed"
	assert.NotEqual(t, "changed", Suggestions()[0])
}
