package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// minorUnitExp is the decimal exponent of the minor currency unit (cents).
const minorUnitExp = -2

type options struct {
	baseURL string
	timeout time.Duration
	rawJSON bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "creditledger-cli",
		Short:         "Credit ledger CLI tool",
		Long:          `A command line interface for posting transactions to the credit ledger API and reading statements.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.rawJSON, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(
		transactionCmd(opts, "credit", "c"),
		transactionCmd(opts, "debit", "d"),
		statementCmd(opts),
		consistencyCmd(opts),
	)

	return rootCmd
}

func transactionCmd(opts *options, name, code string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <account> <amount> <description>",
		Short: "Post a " + name + " (amount in major units, e.g. 12.50)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := parseAccountID(args[0])
			if err != nil {
				return err
			}

			amount, err := toMinorUnits(args[1])
			if err != nil {
				return err
			}

			body, err := json.Marshal(map[string]any{
				"valor":     amount,
				"tipo":      code,
				"descricao": args[2],
			})
			if err != nil {
				return err
			}

			var result struct {
				Limite int64 `json:"limite"`
				Saldo  int64 `json:"saldo"`
			}
			raw, err := opts.do(http.MethodPost, fmt.Sprintf("/clientes/%d/transacoes", accountID), body, &result)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.rawJSON {
				return printJSON(out, raw)
			}

			fmt.Fprintf(out, "Balance: %s\nLimit:   %s\n", formatMinor(result.Saldo), formatMinor(result.Limite))
			return nil
		},
	}
}

func statementCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "statement <account>",
		Short: "Show the balance and the most recent transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := parseAccountID(args[0])
			if err != nil {
				return err
			}

			var statement struct {
				Saldo struct {
					Total       int64     `json:"total"`
					DataExtrato time.Time `json:"data_extrato"`
					Limite      int64     `json:"limite"`
				} `json:"saldo"`
				UltimasTransacoes []struct {
					Valor       int64     `json:"valor"`
					Tipo        string    `json:"tipo"`
					Descricao   string    `json:"descricao"`
					RealizadaEm time.Time `json:"realizada_em"`
				} `json:"ultimas_transacoes"`
			}
			raw, err := opts.do(http.MethodGet, fmt.Sprintf("/clientes/%d/extrato", accountID), nil, &statement)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.rawJSON {
				return printJSON(out, raw)
			}

			fmt.Fprintf(out, "Account %d at %s\n", accountID, statement.Saldo.DataExtrato.Format(time.RFC3339))
			fmt.Fprintf(out, "Balance: %s\nLimit:   %s\n\n", formatMinor(statement.Saldo.Total), formatMinor(statement.Saldo.Limite))

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tKIND\tAMOUNT\tDESCRIPTION")
			for _, e := range statement.UltimasTransacoes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.RealizadaEm.Format(time.RFC3339), kindName(e.Tipo), formatMinor(e.Valor), e.Descricao)
			}
			return w.Flush()
		},
	}
}

func consistencyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that every balance matches its entries and honours its limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Consistent bool `json:"consistent"`
				Accounts   []struct {
					AccountID   int64 `json:"account_id"`
					Balance     int64 `json:"balance"`
					CreditLimit int64 `json:"credit_limit"`
					WithinLimit bool  `json:"within_limit"`
					Balanced    bool  `json:"balanced"`
				} `json:"accounts"`
			}

			raw, err := opts.do(http.MethodGet, "/admin/consistency", nil, &result)
			var apiErr *apiError
			// 409 still carries the per-account report.
			if errors.As(err, &apiErr) && apiErr.status == http.StatusConflict {
				if jerr := json.Unmarshal(apiErr.body, &result); jerr != nil {
					return err
				}
				raw = apiErr.body
			} else if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.rawJSON {
				if err := printJSON(out, raw); err != nil {
					return err
				}
			} else {
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ACCOUNT\tBALANCE\tLIMIT\tBALANCED\tWITHIN LIMIT")
				for _, a := range result.Accounts {
					fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\n", a.AccountID, formatMinor(a.Balance), formatMinor(a.CreditLimit), a.Balanced, a.WithinLimit)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if !result.Consistent {
				return errors.New("consistency check FAILED")
			}
			fmt.Fprintln(out, "Consistency check PASSED")
			return nil
		},
	}
}

type apiError struct {
	status int
	body   []byte
}

func (e *apiError) Error() string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(e.body, &body) == nil && body.Error != "" {
		if body.Message != "" {
			return fmt.Sprintf("request failed (status %d): %s: %s", e.status, body.Error, body.Message)
		}
		return fmt.Sprintf("request failed (status %d): %s", e.status, body.Error)
	}
	return fmt.Sprintf("request failed (status %d): %s", e.status, truncate(string(e.body), 200))
}

// do sends a request and decodes a 2xx JSON response into v, returning the raw body.
func (o *options) do(method, path string, body []byte, v any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, strings.TrimRight(o.baseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: o.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{status: resp.StatusCode, body: raw}
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return raw, nil
}

func parseAccountID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q", s)
	}
	return id, nil
}

// toMinorUnits converts a major-unit amount such as "12.5" to cents.
func toMinorUnits(s string) (int64, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	minor := amount.Shift(-minorUnitExp)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: at most %d decimal places", s, -minorUnitExp)
	}
	if !minor.IsPositive() {
		return 0, fmt.Errorf("invalid amount %q: must be positive", s)
	}
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("invalid amount %q: too large", s)
	}

	return minor.IntPart(), nil
}

func formatMinor(minor int64) string {
	return decimal.New(minor, minorUnitExp).StringFixed(-minorUnitExp)
}

func kindName(code string) string {
	switch code {
	case "c":
		return "credit"
	case "d":
		return "debit"
	default:
		return code
	}
}

func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// truncate shortens s to at most n characters.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
