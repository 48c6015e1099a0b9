package paypack

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CashIn is one collection request.
type CashIn struct {
	Amount      decimal.Decimal
	Phone       string
	Reference   string
	CallbackURL string
}

// Ack is the provider's answer to a cash-in request.
type Ack struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Raw       json.RawMessage `json:"raw"`
}

// TransactionStatus is the provider's view of one transaction.
type TransactionStatus struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Raw       json.RawMessage `json:"raw"`
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type cashInRequest struct {
	Amount      int64  `json:"amount"`
	Phone       string `json:"phone"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// field names differ between provider endpoints and API versions
var (
	referenceKeys = []string{"ref", "reference", "tx_ref", "transaction_id", "transactionId"}
	statusKeys    = []string{"status", "state"}
	tokenKeys     = []string{"access_token", "token", "access"}
)

// Fields is a decoded provider object with lookups over field-name variants.
type Fields map[string]interface{}

// DecodeFields decodes a JSON object; a nested "data" object is merged over the top level.
func DecodeFields(raw []byte) (Fields, error) {
	var top map[string]interface{}
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, err
	}
	f := Fields(top)
	if data, ok := top["data"].(map[string]interface{}); ok {
		for k, v := range data {
			f[k] = v
		}
	}
	return f, nil
}

func (f Fields) first(keys []string) string {
	for _, k := range keys {
		switch v := f[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return decimal.NewFromFloat(v).String()
		}
	}
	return ""
}

func (f Fields) Reference() string { return f.first(referenceKeys) }
func (f Fields) Status() string    { return f.first(statusKeys) }
func (f Fields) token() string     { return f.first(tokenKeys) }

func (f Fields) expiresIn() int64 {
	switch v := f["expires_in"].(type) {
	case float64:
		return int64(v)
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d.IntPart()
		}
	}
	return 0
}
