package telegram

import (
	"fmt"
	"strings"
	"time"

	"finance-dashboard/pkg/utils"
)

// AlertMessage carries what a triggered alert notification shows.
type AlertMessage struct {
	Symbol      string
	Kind        string
	Comparator  string
	Threshold   float64
	Value       float64
	CreatedAt   time.Time
	TriggeredAt time.Time
}

// FormatAlertMessage renders a triggered alert as plain text.
func FormatAlertMessage(m AlertMessage) string {
	condition := "superado"
	if m.Comparator == "below" {
		condition = "caído por debajo de"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 Alerta de %s\n\n", m.Symbol))
	sb.WriteString(fmt.Sprintf("El %s ha %s %s (actual: %s)\n\n", m.Kind, condition, formatNumber(m.Threshold), formatNumber(m.Value)))
	sb.WriteString(fmt.Sprintf("Configurado el: %s\n", utils.PrettyDate(m.CreatedAt)))
	sb.WriteString(fmt.Sprintf("Activado el: %s\n", utils.PrettyDate(m.TriggeredAt)))
	return sb.String()
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
