package assistant

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"naalli/internal/models"
)

var suggestions = []string{
	"Quem são os alunos com risco de evasão (não vêm há 10 dias)?",
	"Qual o horário mais crítico que precisamos abrir mais vagas urgente?",
	"Faça um comparativo detalhado: Manhã (6-9h) vs Noite (18-21h).",
	"Liste os alunos que SÓ fazem esteira e nunca musculação.",
	"Qual dia da semana tem o pior movimento? Sugira uma ação para melhorar.",
	"Crie um resumo executivo do desempenho da academia nesta semana.",
}

// Suggestions returns the canned analyses offered to the admin.
func Suggestions() []string {
	return append([]string(nil), suggestions...)
}

// BookingsCSV renders bookings with the Data,Horario,Tipo,Nome columns.
func BookingsCSV(bookings []*models.Booking) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Data", "Horario", "Tipo", "Nome"}); err != nil {
		return "", err
	}
	for _, b := range bookings {
		if err := w.Write([]string{b.Date, b.Time, b.Kind, b.Name}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.String(), nil
}

// BuildPrompt wraps the booking data and the question in the consultant prompt.
func BuildPrompt(bookings []*models.Booking, question string) (string, error) {
	data, err := BookingsCSV(bookings)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Atue como um consultor de negócios de academia. Analise os dados (CSV):\n")
	sb.WriteString(data)
	sb.WriteString("PERGUNTA: ")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\nDiretrizes: 1. Use dados concretos. 2. Seja propositivo. 3. Responda em Português.\n")
	return sb.String(), nil
}
