// Package categorize asks a language model to suggest categories for
// uncategorized transactions.
package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/rs/zerolog"
)

// Suggestion proposes a category for one transaction.
type Suggestion struct {
	TransactionID string `json:"id"`
	Category      string `json:"category"`
	Reason        string `json:"reason,omitempty"`
}

// Suggester proposes categories for txs from the allowed list.
type Suggester interface {
	Suggest(ctx context.Context, txs []transactions.Transaction, categories []string) ([]Suggestion, error)
}

// Generator returns the raw text completion of a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelSuggester implements Suggester on top of a Generator.
type ModelSuggester struct {
	gen Generator
	log zerolog.Logger
}

// NewModelSuggester creates a suggester using gen.
func NewModelSuggester(gen Generator, log zerolog.Logger) *ModelSuggester {
	return &ModelSuggester{
		gen: gen,
		log: log.With().Str("component", "categorize").Logger(),
	}
}

// Uncategorized returns the transactions without a category.
func Uncategorized(txs []transactions.Transaction) []transactions.Transaction {
	out := []transactions.Transaction{}
	for _, tx := range txs {
		if strings.TrimSpace(tx.Category) == "" {
			out = append(out, tx)
		}
	}
	return out
}

// Suggest implements Suggester. Suggestions naming an unknown transaction
// or a category outside categories are dropped.
func (s *ModelSuggester) Suggest(ctx context.Context, txs []transactions.Transaction, categories []string) ([]Suggestion, error) {
	if len(txs) == 0 {
		return []Suggestion{}, nil
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("Suggest: no categories configured")
	}

	prompt, err := buildPrompt(txs, categories)
	if err != nil {
		return nil, fmt.Errorf("Suggest: %w", err)
	}

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("Suggest: generate: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("Suggest: empty response from model")
	}

	var parsed []Suggestion
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("Suggest: unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	kept := filterSuggestions(parsed, txs, categories)
	if dropped := len(parsed) - len(kept); dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Int("kept", len(kept)).Msg("Discarded invalid category suggestions")
	}
	return kept, nil
}

// filterSuggestions keeps the first valid suggestion per requested ID and
// rewrites its category to the configured spelling.
func filterSuggestions(parsed []Suggestion, txs []transactions.Transaction, categories []string) []Suggestion {
	asked := make(map[string]bool, len(txs))
	for _, tx := range txs {
		asked[tx.ID] = true
	}
	allowed := make(map[string]string, len(categories))
	for _, c := range categories {
		allowed[strings.ToLower(c)] = c
	}

	seen := make(map[string]bool)
	kept := []Suggestion{}
	for _, sg := range parsed {
		if !asked[sg.TransactionID] || seen[sg.TransactionID] {
			continue
		}
		canonical, ok := allowed[strings.ToLower(strings.TrimSpace(sg.Category))]
		if !ok {
			continue
		}
		seen[sg.TransactionID] = true
		sg.Category = canonical
		kept = append(kept, sg)
	}
	return kept
}

type promptTransaction struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant,omitempty"`
	Channel  string  `json:"payment_channel,omitempty"`
}

func buildPrompt(txs []transactions.Transaction, categories []string) (string, error) {
	items := make([]promptTransaction, 0, len(txs))
	for _, tx := range txs {
		items = append(items, promptTransaction{
			ID:       tx.ID,
			Date:     tx.Date.String(),
			Name:     tx.Name,
			Amount:   tx.Amount,
			Merchant: strings.TrimSpace(tx.Merchant),
			Channel:  tx.PaymentChannel,
		})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("buildPrompt: marshal transactions: %w", err)
	}

	var b strings.Builder
	b.WriteString("You categorize personal bank transactions.\n\n")
	b.WriteString("Use ONLY the following categories:\n")
	for _, c := range categories {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("\nTransactions (positive amount is money IN, negative is money OUT):\n")
	b.Write(data)
	b.WriteString("\n\nRules:\n")
	b.WriteString("1. Category must be EXACTLY one of the category names above.\n")
	b.WriteString("2. Return at most one object per transaction id.\n")
	b.WriteString("3. Skip a transaction if no category fits.\n\n")
	b.WriteString("Output a JSON array of objects with fields \"id\", \"category\" and \"reason\" (short string).\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")
	return b.String(), nil
}

// cleanModelJSON strips Markdown fences and text around a JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

var _ Suggester = (*ModelSuggester)(nil)
