// Package store is the read-only Supabase (PostgREST) data layer for the
// reconciliation engine. Every table the engine consumes is reached through
// one method here; row payloads are parsed into typed structs at this boundary.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/supabase-community/postgrest-go"
	supabase "github.com/supabase-community/supabase-go"
)

// Client wraps the Supabase client with the query shapes used by the engine.
type Client struct {
	sb       *supabase.Client
	pageSize int
}

// NewClient constructs a Client against the given Supabase project.
func NewClient(url, key string, pageSize int) (*Client, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	sb, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("store: create supabase client: %w", err)
	}
	return &Client{sb: sb, pageSize: pageSize}, nil
}

func formatBar(barID int64) string {
	return strconv.FormatInt(barID, 10)
}

// YuzerOrderTotals returns every yuzer_analitico order amount for the date.
func (c *Client) YuzerOrderTotals(ctx context.Context, barID int64, date string) ([]YuzerOrderRow, error) {
	return FetchAll(ctx, func(ctx context.Context, from, to int) ([]YuzerOrderRow, error) {
		var rows []YuzerOrderRow
		_, err := c.sb.From("yuzer_analitico").
			Select("valor_total", "", false).
			Eq("bar_id", formatBar(barID)).
			Eq("data_pedido", date).
			Range(from, to, "").
			ExecuteTo(&rows)
		return rows, err
	}, c.pageSize)
}

// YuzerOrdersByHour returns timestamped yuzer_analitico orders for the date.
func (c *Client) YuzerOrdersByHour(ctx context.Context, barID int64, date string) ([]YuzerOrderRow, error) {
	return FetchAll(ctx, func(ctx context.Context, from, to int) ([]YuzerOrderRow, error) {
		var rows []YuzerOrderRow
		_, err := c.sb.From("yuzer_analitico").
			Select("data_hora_pedido, valor_total, pedido_id", "", false).
			Eq("bar_id", formatBar(barID)).
			Eq("data_pedido", date).
			Not("data_hora_pedido", "is", "null").
			Range(from, to, "").
			ExecuteTo(&rows)
		return rows, err
	}, c.pageSize)
}

// YuzerEventTotals returns per-event ticketing totals for the date.
func (c *Client) YuzerEventTotals(ctx context.Context, barID int64, date string) ([]YuzerEventTotalRow, error) {
	var rows []YuzerEventTotalRow
	_, err := c.sb.From("yuzer_estatisticas_detalhadas").
		Select("total", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("data_evento", date).
		ExecuteTo(&rows)
	return rows, err
}

// HourlyRevenueTotals returns the raw fatporhora amounts for the date.
// Used by source detection, which only needs row presence and the sum.
func (c *Client) HourlyRevenueTotals(ctx context.Context, barID int64, date string) ([]HourlyRevenueRow, error) {
	var rows []HourlyRevenueRow
	_, err := c.sb.From("fatporhora").
		Select("valor", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("vd_dtgerencial", date).
		ExecuteTo(&rows)
	return rows, err
}

// HourlyRevenue returns the per-hour fatporhora aggregates, ascending by hour.
func (c *Client) HourlyRevenue(ctx context.Context, barID int64, date string) ([]HourlyRevenueRow, error) {
	var rows []HourlyRevenueRow
	_, err := c.sb.From("fatporhora").
		Select("hora, valor, qtd", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("vd_dtgerencial", date).
		Not("valor", "is", "null").
		Order("hora", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	return rows, err
}

// Payments returns every payment-level record for the date, excluding house
// account ("Conta Assinada") entries.
func (c *Client) Payments(ctx context.Context, barID int64, date string) ([]PaymentRow, error) {
	return FetchAll(ctx, func(ctx context.Context, from, to int) ([]PaymentRow, error) {
		var rows []PaymentRow
		_, err := c.sb.From("pagamentos").
			Select("liquido, origem", "", false).
			Eq("bar_id", formatBar(barID)).
			Eq("dt_gerencial", date).
			Not("liquido", "is", "null").
			Neq("pag", "Conta Assinada").
			Range(from, to, "").
			ExecuteTo(&rows)
		return rows, err
	}, c.pageSize)
}

// PeriodLedger returns the periodo entries for the date. The ledger keys its
// dates without separators (20250310), unlike every other table.
func (c *Client) PeriodLedger(ctx context.Context, barID int64, date string) ([]PeriodLedgerRow, error) {
	var rows []PeriodLedgerRow
	_, err := c.sb.From("periodo").
		Select("liquido_netto", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("dt_gerencial", strings.ReplaceAll(date, "-", "")).
		ExecuteTo(&rows)
	return rows, err
}

// BoxOffice returns the sympla_bilheteria totals for the date.
func (c *Client) BoxOffice(ctx context.Context, barID int64, date string) ([]BoxOfficeRow, error) {
	var rows []BoxOfficeRow
	_, err := c.sb.From("sympla_bilheteria").
		Select("total_liquido", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("data_evento", date).
		Not("total_liquido", "is", "null").
		ExecuteTo(&rows)
	return rows, err
}

// SymplaCheckins counts ticket-redemption visits recorded for the date.
func (c *Client) SymplaCheckins(ctx context.Context, barID int64, date string) (int, error) {
	var rows []struct {
		ID int64 `json:"id"`
	}
	_, err := c.sb.From("cliente_visitas").
		Select("id", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("data_visita", date).
		Eq("tipo_visita", "evento_sympla").
		ExecuteTo(&rows)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// DailyHeadcount returns the aggregate patron count for the date, zero when
// the table has no row for it.
func (c *Client) DailyHeadcount(ctx context.Context, date string) (int, error) {
	var rows []HeadcountRow
	_, err := c.sb.From("pessoas_diario_corrigido").
		Select("total_pessoas_bruto", "", false).
		Eq("dt_gerencial", date).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].TotalPessoasBruto, nil
}

// HourlyVisits returns the attendance-tagged analitico rows for the date.
func (c *Client) HourlyVisits(ctx context.Context, barID int64, date string) ([]VisitRow, error) {
	return FetchAll(ctx, func(ctx context.Context, from, to int) ([]VisitRow, error) {
		var rows []VisitRow
		_, err := c.sb.From("analitico").
			Select("created_at, vd", "", false).
			Eq("bar_id", formatBar(barID)).
			Eq("vd_dtgerencial", date).
			Not("vd", "is", "null").
			Range(from, to, "").
			ExecuteTo(&rows)
		return rows, err
	}, c.pageSize)
}

// ServiceTimes returns the preparation-time log entries for a calendar day.
// The table is keyed by year/month/day columns, not a date string, which keeps
// the lookup immune to timezone drift on the timestamp column.
func (c *Client) ServiceTimes(ctx context.Context, barID int64, year, month, day int) ([]ServiceTimeRow, error) {
	var rows []ServiceTimeRow
	_, err := c.sb.From("tempo").
		Select("grp_desc, t1_t2", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("ano", strconv.Itoa(year)).
		Eq("mes", strconv.Itoa(month)).
		Eq("dia", strconv.Itoa(day)).
		Not("t1_t2", "is", "null").
		ExecuteTo(&rows)
	return rows, err
}

// ArtistEventDates returns the dates of every event for the artist, newest
// first when desc is true.
func (c *Client) ArtistEventDates(ctx context.Context, barID int64, artist string, desc bool) ([]string, error) {
	var rows []EventRow
	_, err := c.sb.From("eventos").
		Select("data_evento", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("nome_artista", artist).
		Order("data_evento", &postgrest.OrderOpts{Ascending: !desc}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.DataEvento != "" {
			dates = append(dates, row.DataEvento)
		}
	}
	return dates, nil
}

// EventArtist returns the performer booked for the date, empty when the date
// has no event row.
func (c *Client) EventArtist(ctx context.Context, barID int64, date string) (string, error) {
	var rows []EventRow
	_, err := c.sb.From("eventos").
		Select("nome_artista", "", false).
		Eq("bar_id", formatBar(barID)).
		Eq("data_evento", date).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].NomeArtista, nil
}

// ArtistNames returns the raw (possibly duplicated) artist names attached to
// the bar's events.
func (c *Client) ArtistNames(ctx context.Context, barID int64) ([]string, error) {
	var rows []EventRow
	_, err := c.sb.From("eventos").
		Select("nome_artista", "", false).
		Eq("bar_id", formatBar(barID)).
		Not("nome_artista", "is", "null").
		Neq("nome_artista", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.NomeArtista)
	}
	return names, nil
}

// RecentEventDates returns event dates on or after the given date, used by
// the warmup job to decide which days to pre-resolve.
func (c *Client) RecentEventDates(ctx context.Context, barID int64, since string) ([]string, error) {
	var rows []EventRow
	_, err := c.sb.From("eventos").
		Select("data_evento", "", false).
		Eq("bar_id", formatBar(barID)).
		Gte("data_evento", since).
		Order("data_evento", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(rows))
	dates := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.DataEvento == "" {
			continue
		}
		if _, ok := seen[row.DataEvento]; ok {
			continue
		}
		seen[row.DataEvento] = struct{}{}
		dates = append(dates, row.DataEvento)
	}
	return dates, nil
}
