package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ListEnvelope is the one list shape the gateway emits. Upstream endpoints
// answer with a bare array or wrap it under a handful of keys; everything is
// collapsed here so the frontend never branches on response shape again.
type ListEnvelope struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
}

// listKeys are the wrapper keys seen across upstream list endpoints.
var listKeys = []string{"data", "items", "portfolios", "subscriptions"}

// NormalizeList parses an upstream list payload into the canonical envelope.
// Accepted shapes: a bare JSON array, or an object carrying the array under
// one of the known wrapper keys. Anything else is an error.
func NormalizeList(body []byte) (*ListEnvelope, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		return &ListEnvelope{Items: items, Total: len(items)}, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("unrecognized list payload: %w", err)
	}
	for _, key := range listKeys {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("list key %q is not an array: %w", key, err)
		}
		return &ListEnvelope{Items: items, Total: len(items)}, nil
	}
	return nil, fmt.Errorf("no list found in payload")
}

// Trader is the leaderboard view-model. Numeric fields are decimals because
// upstream encodes them inconsistently as JSON numbers or strings, and
// float64 round-trips would corrupt the USD amounts.
type Trader struct {
	TraderID       int64           `json:"trader_id"`
	TraderAddress  string          `json:"trader_address"`
	WinRate        decimal.Decimal `json:"win_rate"`
	TotalVolumeUSD decimal.Decimal `json:"total_volume_usd"`
	AccountAgeDays int             `json:"account_age_days"`
	AvgRiskRatio   decimal.Decimal `json:"avg_risk_ratio"`
	MaxDrawdown    decimal.Decimal `json:"max_drawdown"`
	MaxProfitUSD   decimal.Decimal `json:"max_profit_usd"`
	MaxLossUSD     decimal.Decimal `json:"max_loss_usd"`
	TraderScore    decimal.Decimal `json:"trader_score"`
	UpdatedAt      string          `json:"updated_at"`
}

// NormalizeLeaderboard parses an upstream leaderboard payload into typed
// traders inside the canonical envelope.
func NormalizeLeaderboard(body []byte) (*ListEnvelope, error) {
	envelope, err := NormalizeList(body)
	if err != nil {
		return nil, err
	}

	normalized := make([]json.RawMessage, 0, len(envelope.Items))
	for i, raw := range envelope.Items {
		var trader Trader
		if err := json.Unmarshal(raw, &trader); err != nil {
			return nil, fmt.Errorf("trader %d: %w", i, err)
		}
		out, err := json.Marshal(trader)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, out)
	}
	envelope.Items = normalized
	return envelope, nil
}
