package query

import (
	"regexp"
	"strings"

	"finsight/internal/core"
)

// Intent is the classified purpose of a query. Closed set; IntentGeneral
// is the no-match fallback.
type Intent string

const (
	IntentRevenueVsBudget Intent = "revenue_vs_budget"
	IntentRevenueTrend    Intent = "revenue_trend"
	IntentGrossMargin     Intent = "gross_margin"
	IntentOpexBreakdown   Intent = "opex_breakdown"
	IntentCashRunway      Intent = "cash_runway"
	IntentCashTrend       Intent = "cash_trend"
	IntentEBITDA          Intent = "ebitda"
	IntentGeneral         Intent = "general"
)

type intentRule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// intentRules is evaluated in order and the first matching pattern wins.
// Order is load-bearing: phrasings containing e.g. both "margin" and
// "budget" must classify by the earlier group.
var intentRules = []intentRule{
	{IntentRevenueVsBudget, compile(
		`revenue.*vs.*budget`,
		`revenue.*compared.*budget`,
		`actual.*revenue.*budget`,
		`budget.*vs.*revenue`,
		`revenue.*against.*budget`,
	)},
	{IntentRevenueTrend, compile(
		`revenue.*trend`,
		`revenue.*over.*time`,
		`revenue.*last.*months?`,
		`show.*revenue`,
	)},
	{IntentGrossMargin, compile(
		`gross.*margin`,
		`margin.*trend`,
		`margin.*percent`,
		`profitability`,
	)},
	{IntentOpexBreakdown, compile(
		`opex.*breakdown`,
		`operating.*expense`,
		`break.*down.*expense`,
		`expense.*categor`,
		`spending.*breakdown`,
		`break.*down.*opex`,
		`spending.*category`,
	)},
	{IntentCashRunway, compile(
		`cash.*runway`,
		`cash.*burn`,
		`how.*long.*cash`,
		`runway`,
	)},
	{IntentCashTrend, compile(
		`cash.*trend`,
		`cash.*over.*time`,
		`cash.*balance`,
	)},
	{IntentEBITDA, compile(
		`ebitda`,
		`operating.*profit`,
		`earnings`,
	)},
}

// Classify lowercases the query, extracts time parameters and tests the
// ordered intent groups. Never fails: unparseable queries resolve to
// IntentGeneral with default params.
func Classify(query string, latest core.Month) (Intent, Params) {
	lowered := strings.ToLower(query)
	params := extractParams(lowered, latest)

	for _, rule := range intentRules {
		for _, re := range rule.patterns {
			if re.MatchString(lowered) {
				return rule.intent, params
			}
		}
	}
	return IntentGeneral, params
}
