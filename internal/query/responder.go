package query

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
	"finsight/internal/metrics"
)

// ChartMarker separates the human-readable answer from the serialized
// per-month records a UI may parse to render a chart. Private contract
// with the caller: absence means no chart payload.
const ChartMarker = "CHART_DATA:"

// Copilot routes a classified query to the matching handler and formats
// the answer. Stateless across queries; safe for concurrent use once the
// engine is constructed.
type Copilot struct {
	engine *metrics.Engine
}

func New(engine *metrics.Engine) *Copilot {
	return &Copilot{engine: engine}
}

// ProcessQuery answers a free-text question. The response is always
// non-empty and never accompanied by an error: the outermost boundary
// converts any fault into an apologetic answer instead of propagating it.
func (c *Copilot) ProcessQuery(query string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("query processing fault", "query", query, "panic", r)
			response = fmt.Sprintf("I apologize, but I encountered an error processing your query: %v. Please try rephrasing your question.", r)
		}
	}()

	intent, params := Classify(query, c.engine.LatestMonth())

	switch intent {
	case IntentRevenueVsBudget:
		return c.handleRevenueVsBudget(params)
	case IntentRevenueTrend:
		return c.handleRevenueTrend(params)
	case IntentGrossMargin:
		return c.handleGrossMargin(params)
	case IntentOpexBreakdown:
		return c.handleOpexBreakdown(params)
	case IntentCashRunway:
		return c.handleCashRunway()
	case IntentCashTrend:
		return c.handleCashTrend()
	case IntentEBITDA:
		return c.handleEBITDA(params)
	default:
		return generalHelp
	}
}

// SplitChart separates a response into its text and chart payload parts.
// The second return is empty when the response carries no payload.
func SplitChart(response string) (text, chartJSON string) {
	idx := strings.Index(response, ChartMarker)
	if idx < 0 {
		return response, ""
	}
	return strings.TrimRight(response[:idx], "\n"), response[idx+len(ChartMarker):]
}

func millions(v decimal.Decimal) string {
	return fmt.Sprintf("$%.1fM", v.Div(decimal.NewFromInt(1_000_000)).InexactFloat64())
}

func signedMillions(v decimal.Decimal) string {
	return fmt.Sprintf("$%+.1fM", v.Div(decimal.NewFromInt(1_000_000)).InexactFloat64())
}

func (c *Copilot) handleRevenueVsBudget(params Params) string {
	month := params.Month(c.engine.LatestMonth())

	data := c.engine.RevenueVsBudget(month, month)
	if len(data) == 0 {
		return fmt.Sprintf("No revenue data found for %s.", month)
	}
	row := data[0]

	var b strings.Builder
	fmt.Fprintf(&b, "**Revenue Performance for %s:**\n\n", month.Label())
	fmt.Fprintf(&b, "• **Actual Revenue:** %s\n", millions(row.ActualUSD))
	fmt.Fprintf(&b, "• **Budgeted Revenue:** %s\n", millions(row.BudgetUSD))
	fmt.Fprintf(&b, "• **Variance:** %+.1f%% ", row.VariancePct)
	if row.VariancePct > 0 {
		b.WriteString("🟢 (Above budget)")
	} else {
		b.WriteString("🔴 (Below budget)")
	}
	return b.String()
}

// revenueChartRow is the wire shape of one revenue trend record.
type revenueChartRow struct {
	Month      string  `json:"month"`
	RevenueUSD float64 `json:"revenue_usd"`
}

func (c *Copilot) handleRevenueTrend(params Params) string {
	start, end := params.Window(c.engine.LatestMonth())

	data := c.engine.RevenueTrend(start, end)
	if len(data) == 0 {
		return "No revenue trend data available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Revenue Trend (%s to %s):**\n\n", start, end)
	chart := make([]revenueChartRow, 0, len(data))
	for _, row := range data {
		fmt.Fprintf(&b, "• %s: %s\n", row.Month.Short(), millions(row.RevenueUSD))
		chart = append(chart, revenueChartRow{
			Month:      string(row.Month),
			RevenueUSD: row.RevenueUSD.InexactFloat64(),
		})
	}

	first, last := data[0].RevenueUSD, data[len(data)-1].RevenueUSD
	if len(data) > 1 && first.IsPositive() {
		growth := last.Sub(first).Div(first).InexactFloat64() * 100
		fmt.Fprintf(&b, "\n**Total Growth:** %+.1f%%", growth)
	}

	appendChart(&b, chart)
	return b.String()
}

type marginChartRow struct {
	Month          string  `json:"month"`
	GrossMarginPct float64 `json:"gross_margin_pct"`
}

func (c *Copilot) handleGrossMargin(params Params) string {
	latest := c.engine.LatestMonth()

	var start, end core.Month
	if params.Period == PeriodLast3Months {
		start, end = params.Window(latest)
	} else {
		start = params.Month(latest)
		end = start
	}

	data := c.engine.GrossMarginTrend(start, end)
	if len(data) == 0 {
		return "No gross margin data available."
	}

	var b strings.Builder
	if start == end {
		row := data[0]
		fmt.Fprintf(&b, "**Gross Margin for %s:** %.1f%%\n\n", row.Month.Label(), row.GrossMarginPct)
		fmt.Fprintf(&b, "• **Revenue:** %s\n", millions(row.RevenueUSD))
		fmt.Fprintf(&b, "• **COGS:** %s", millions(row.CogsUSD))
		return b.String()
	}

	fmt.Fprintf(&b, "**Gross Margin Trend (%s to %s):**\n\n", start, end)
	chart := make([]marginChartRow, 0, len(data))
	sum := 0.0
	for _, row := range data {
		fmt.Fprintf(&b, "• %s: %.1f%%\n", row.Month.Short(), row.GrossMarginPct)
		sum += row.GrossMarginPct
		chart = append(chart, marginChartRow{
			Month:          string(row.Month),
			GrossMarginPct: row.GrossMarginPct,
		})
	}
	fmt.Fprintf(&b, "\n**Average Margin:** %.1f%%", sum/float64(len(data)))

	appendChart(&b, chart)
	return b.String()
}

func (c *Copilot) handleOpexBreakdown(params Params) string {
	month := params.Month(c.engine.LatestMonth())

	rows := c.engine.OpexBreakdown(month)
	if len(rows) == 0 {
		return fmt.Sprintf("No operating expense data found for %s.", month)
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.AmountUSD)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Operating Expenses for %s:**\n\n", month.Label())
	fmt.Fprintf(&b, "**Total OpEx:** %s\n\n", millions(total))
	b.WriteString("**Breakdown by Category:**\n")
	for _, row := range rows {
		share := 0.0
		if total.IsPositive() {
			share = row.AmountUSD.Div(total).InexactFloat64() * 100
		}
		fmt.Fprintf(&b, "• **%s:** %s (%.1f%%)\n", row.Category, millions(row.AmountUSD), share)
	}
	return b.String()
}

func (c *Copilot) handleCashRunway() string {
	var b strings.Builder
	b.WriteString("**Cash Runway Analysis:**\n\n")

	if runway, ok := c.engine.CashRunway(); ok {
		fmt.Fprintf(&b, "• **Current Runway:** %.1f months\n", runway)
		switch {
		case runway < 6:
			b.WriteString("• **Status:** 🔴 Critical - Consider fundraising\n")
		case runway < 12:
			b.WriteString("• **Status:** 🟡 Caution - Monitor closely\n")
		default:
			b.WriteString("• **Status:** 🟢 Healthy\n")
		}
	}
	cash, haveCash := c.engine.CurrentCashBalance()
	if haveCash {
		fmt.Fprintf(&b, "• **Current Cash:** %s\n", millions(cash))
	} else {
		b.WriteString("• Cash data is not available for this session.\n")
	}
	if burn, ok := c.engine.AverageBurnRate(3); ok && !burn.IsZero() {
		fmt.Fprintf(&b, "• **Avg Monthly Burn:** %s\n", millions(burn.Abs()))
	}
	return b.String()
}

type cashChartRow struct {
	Month          string  `json:"month"`
	CashBalanceUSD float64 `json:"cash_balance_usd"`
}

func (c *Copilot) handleCashTrend() string {
	// Cash trend always shows the default window regardless of the
	// extracted period.
	latest := c.engine.LatestMonth()
	start, end := Params{}.Window(latest)

	data := c.engine.CashTrend(start, end)
	if len(data) == 0 {
		return "No cash trend data available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Cash Balance Trend (%s to %s):**\n\n", start, end)
	chart := make([]cashChartRow, 0, len(data))
	for _, row := range data {
		fmt.Fprintf(&b, "• %s: %s\n", row.Month.Short(), millions(row.CashBalanceUSD))
		chart = append(chart, cashChartRow{
			Month:          string(row.Month),
			CashBalanceUSD: row.CashBalanceUSD.InexactFloat64(),
		})
	}

	if len(data) > 1 {
		net := data[len(data)-1].CashBalanceUSD.Sub(data[0].CashBalanceUSD)
		fmt.Fprintf(&b, "\n**Net Change:** %s", signedMillions(net))
	}

	appendChart(&b, chart)
	return b.String()
}

type ebitdaChartRow struct {
	Month     string  `json:"month"`
	EBITDAUSD float64 `json:"ebitda_usd"`
}

func (c *Copilot) handleEBITDA(params Params) string {
	latest := c.engine.LatestMonth()

	// A relative period with no specific month asks for the trend view.
	if params.SpecificMonth == "" && (params.Period == PeriodLast3Months || params.Period == PeriodLast6Months) {
		return c.ebitdaTrend(params, latest)
	}

	month := params.Month(latest)
	s, ok := c.engine.EBITDA(month)
	if !ok {
		return fmt.Sprintf("No EBITDA data available for %s.", month)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**EBITDA for %s:**\n\n", month.Label())
	fmt.Fprintf(&b, "• **Revenue:** %s\n", millions(s.RevenueUSD))
	fmt.Fprintf(&b, "• **COGS:** %s\n", millions(s.CogsUSD))
	fmt.Fprintf(&b, "• **OpEx:** %s\n", millions(s.OpexUSD))
	fmt.Fprintf(&b, "• **EBITDA:** %s\n\n", millions(s.EBITDAUSD))
	if pct, ok := s.MarginPct(); ok {
		fmt.Fprintf(&b, "**EBITDA Margin:** %.1f%%", pct)
	}
	return b.String()
}

func (c *Copilot) ebitdaTrend(params Params, latest core.Month) string {
	start, end := params.Window(latest)

	data := c.engine.EBITDATrend(start, end)
	if len(data) == 0 {
		return "No EBITDA trend data available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**EBITDA Trend (%s to %s):**\n\n", start, end)
	chart := make([]ebitdaChartRow, 0, len(data))
	for _, s := range data {
		fmt.Fprintf(&b, "• %s: %s\n", s.Month.Short(), millions(s.EBITDAUSD))
		chart = append(chart, ebitdaChartRow{
			Month:     string(s.Month),
			EBITDAUSD: s.EBITDAUSD.InexactFloat64(),
		})
	}

	appendChart(&b, chart)
	return b.String()
}

// appendChart serializes the per-month records behind the chart marker.
// Serialization failures drop the payload rather than the answer.
func appendChart(b *strings.Builder, records any) {
	payload, err := json.Marshal(records)
	if err != nil {
		slog.Error("chart payload serialization failed", "error", err)
		return
	}
	b.WriteString("\n")
	b.WriteString(ChartMarker)
	b.Write(payload)
}

const generalHelp = "I can help you with various financial analyses. Here are some things you can ask:\n\n" +
	"📊 **Revenue Analysis:**\n" +
	"• 'What was June 2025 revenue vs budget?'\n" +
	"• 'Show revenue trend for last 3 months'\n\n" +
	"💰 **Profitability:**\n" +
	"• 'What's our gross margin for June?'\n" +
	"• 'Show EBITDA for this month'\n\n" +
	"💸 **Expenses:**\n" +
	"• 'Break down OpEx by category'\n" +
	"• 'How much did we spend on R&D?'\n\n" +
	"🏦 **Cash Management:**\n" +
	"• 'What is our cash runway?'\n" +
	"• 'Show cash trend over 6 months'\n\n" +
	"Try asking one of these questions!"
