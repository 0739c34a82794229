package store

import (
	"math"
	"strconv"
	"strings"
)

// Monetary values arrive from PostgREST as strings. ParseMoney is the single
// choke point that maps them to float64 with invalid/missing treated as zero.
func ParseMoney(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// YuzerOrderRow is one granular order from yuzer_analitico.
type YuzerOrderRow struct {
	ValorTotal     string `json:"valor_total"`
	DataHoraPedido string `json:"data_hora_pedido,omitempty"`
	PedidoID       string `json:"pedido_id,omitempty"`
}

// Value returns the parsed order amount.
func (r YuzerOrderRow) Value() float64 { return ParseMoney(r.ValorTotal) }

// YuzerEventTotalRow is one per-event total from yuzer_estatisticas_detalhadas.
type YuzerEventTotalRow struct {
	Total string `json:"total"`
}

// Value returns the parsed event total.
func (r YuzerEventTotalRow) Value() float64 { return ParseMoney(r.Total) }

// HourlyRevenueRow is one hourly aggregate from fatporhora.
type HourlyRevenueRow struct {
	Hora  string `json:"hora"`
	Valor string `json:"valor"`
	Qtd   string `json:"qtd,omitempty"`
}

// Value returns the parsed hourly revenue.
func (r HourlyRevenueRow) Value() float64 { return ParseMoney(r.Valor) }

// Quantity returns the aggregate sale count, zero when absent or malformed.
func (r HourlyRevenueRow) Quantity() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Qtd))
	if err != nil {
		return 0
	}
	return n
}

// PaymentRow is one payment-level record from pagamentos.
type PaymentRow struct {
	Liquido string `json:"liquido"`
	Origem  string `json:"origem,omitempty"`
}

// Value returns the parsed net payment amount.
func (r PaymentRow) Value() float64 { return ParseMoney(r.Liquido) }

// FromSympla reports whether the payment originated on the Sympla platform.
func (r PaymentRow) FromSympla() bool {
	return strings.Contains(strings.ToLower(r.Origem), "sympla")
}

// PeriodLedgerRow is one entry from the periodo ledger.
type PeriodLedgerRow struct {
	LiquidoNetto *string `json:"liquido_netto"`
}

// Value returns the parsed net amount; nil entries count as zero.
func (r PeriodLedgerRow) Value() float64 {
	if r.LiquidoNetto == nil {
		return 0
	}
	return ParseMoney(*r.LiquidoNetto)
}

// BoxOfficeRow is one entry from sympla_bilheteria.
type BoxOfficeRow struct {
	TotalLiquido string `json:"total_liquido"`
}

// Value returns the parsed box office total.
func (r BoxOfficeRow) Value() float64 { return ParseMoney(r.TotalLiquido) }

// HeadcountRow is the daily aggregate from pessoas_diario_corrigido.
type HeadcountRow struct {
	TotalPessoasBruto int `json:"total_pessoas_bruto"`
}

// VisitRow is one attendance-tagged order from analitico.
type VisitRow struct {
	CreatedAt string `json:"created_at"`
	VD        string `json:"vd"`
}

// ServiceTimeRow is one preparation-time log entry from tempo.
type ServiceTimeRow struct {
	GrpDesc string `json:"grp_desc,omitempty"`
	T1T2    string `json:"t1_t2"`
}

// Minutes returns the parsed minutes-to-serve for the entry.
func (r ServiceTimeRow) Minutes() float64 { return ParseMoney(r.T1T2) }

// EventRow is one performer event from eventos.
type EventRow struct {
	NomeArtista string `json:"nome_artista,omitempty"`
	DataEvento  string `json:"data_evento,omitempty"`
}
