// Package plaid provides a client for interacting with the Plaid API.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	clientName = "Noumi"
	pageSize   = int32(500) // Plaid's max page size
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("plaid client ID is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("plaid secret is required")
	}
	if c.Environment == "" {
		return fmt.Errorf("plaid environment is required")
	}
	if c.Environment != "sandbox" && c.Environment != "production" {
		return fmt.Errorf("invalid Plaid environment: must be sandbox or production")
	}
	return nil
}

// Client talks to Plaid on behalf of any user; access tokens are passed per call.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	environment string
	retryOpts   common.RetryOptions
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		environment: cfg.Environment,
		logger:      common.ComponentLogger("plaid"),
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetTransactions fetches a user's transactions within the date range.
// Amounts follow the application sign convention: expenses are negative.
func (c *Client) GetTransactions(ctx context.Context, accessToken, userID string, startDate, endDate time.Time) ([]model.Transaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if accessToken == "" || userID == "" {
		return nil, fmt.Errorf("%w: access token and user id are required", common.ErrInvalidInput)
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"user_id", userID,
		"start_date", startDate.Format(model.DateLayout),
		"end_date", endDate.Format(model.DateLayout))

	var allTransactions []plaid.Transaction
	offset := int32(0)

	for {
		var page []plaid.Transaction

		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				accessToken,
				startDate.Format(model.DateLayout),
				endDate.Format(model.DateLayout),
			)
			request.SetOptions(plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			})

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				return c.wrapError(err, "failed to fetch transactions")
			}

			page = resp.GetTransactions()
			c.logger.Debug("Fetched transaction batch",
				"count", len(page),
				"offset", offset,
				"total", resp.GetTotalTransactions())
			return nil
		}, c.retryOpts)
		if retryErr != nil {
			return nil, retryErr
		}

		allTransactions = append(allTransactions, page...)
		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	c.logger.Info("Fetched all transactions", "user_id", userID, "count", len(allTransactions))

	transactions := make([]model.Transaction, 0, len(allTransactions))
	for _, pt := range allTransactions {
		if pt.GetPending() {
			continue
		}
		txn, err := mapTransaction(userID, transactionFields{
			ID:               pt.GetTransactionId(),
			AccountID:        pt.GetAccountId(),
			Date:             pt.GetDate(),
			Name:             pt.GetName(),
			MerchantName:     pt.GetMerchantName(),
			Amount:           pt.GetAmount(),
			PrimaryCategory:  pt.GetPersonalFinanceCategory().Primary,
			LegacyCategories: pt.GetCategory(),
		})
		if err != nil {
			c.logger.Warn("Skipping malformed Plaid transaction", "id", pt.GetTransactionId(), "error", err)
			continue
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

// GetAccounts fetches the account IDs behind an access token.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			return c.wrapError(err, "failed to fetch accounts")
		}
		accounts = resp.GetAccounts()
		return nil
	}, c.retryOpts)
	if retryErr != nil {
		return nil, retryErr
	}

	accountIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.GetAccountId())
	}
	return accountIDs, nil
}

// CreateLinkToken creates a Link token for the user's Plaid Link session.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", common.ErrInvalidInput)
	}

	request := plaid.NewLinkTokenCreateRequest(
		clientName,
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		plaid.LinkTokenCreateRequestUser{ClientUserId: userID},
	)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := c.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", c.wrapError(err, "failed to create link token")
	}
	return resp.GetLinkToken(), nil
}

// ExchangePublicToken exchanges a public token from Link for an access token and item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	if publicToken == "" {
		return "", "", fmt.Errorf("%w: public token is required", common.ErrInvalidInput)
	}

	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", "", c.wrapError(err, "failed to exchange public token")
	}
	return resp.GetAccessToken(), resp.GetItemId(), nil
}

func (c *Client) wrapError(err error, msg string) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return fmt.Errorf("%s: %w: %w", msg, common.ErrPlaidConnection, err)
	}
	if plaidErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
		c.logger.Warn("Rate limit hit, will retry", "error", plaidErr.ErrorMessage)
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidErr.ErrorMessage), Retryable: true}
	}
	return common.Permanent(fmt.Errorf("plaid API error: %s - %s", plaidErr.ErrorCode, plaidErr.ErrorMessage))
}

// transactionFields is the subset of a Plaid transaction the mapper reads.
type transactionFields struct {
	ID               string
	AccountID        string
	Date             string
	Name             string
	MerchantName     string
	PrimaryCategory  string
	LegacyCategories []string
	Amount           float64
}

var errMissingID = errors.New("missing transaction id")

// mapTransaction converts Plaid fields to the internal model. Plaid reports
// outflows as positive amounts, so the sign is flipped.
func mapTransaction(userID string, f transactionFields) (model.Transaction, error) {
	if f.ID == "" {
		return model.Transaction{}, errMissingID
	}
	date, err := model.ParseDate(f.Date)
	if err != nil {
		return model.Transaction{}, err
	}

	merchant := f.MerchantName
	if merchant == "" {
		merchant = f.Name
	}

	txn := model.Transaction{
		ID:           f.ID,
		UserID:       userID,
		AccountID:    f.AccountID,
		Date:         date,
		Name:         f.Name,
		MerchantName: cleanMerchantName(merchant),
		Amount:       decimal.NewFromFloat(f.Amount).Neg().Round(2),
		Category:     categoryName(f.PrimaryCategory, f.LegacyCategories),
	}
	txn.Hash = txn.GenerateHash()
	return txn, nil
}

// titleCase builds a fresh caser per call; a cases.Caser is stateful and
// must not be shared between goroutines.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// categoryName prefers the personal finance category (FOOD_AND_DRINK) and
// falls back to the top level of the legacy hierarchy.
func categoryName(primary string, legacy []string) string {
	if primary != "" {
		return titleCase(strings.ReplaceAll(primary, "_", " "))
	}
	if len(legacy) > 0 && strings.TrimSpace(legacy[0]) != "" {
		return strings.TrimSpace(legacy[0])
	}
	return ""
}

var merchantSuffixes = []string{
	" Llc",
	" Inc",
	" Corp",
	" Corporation",
	" Company",
	" Co",
	" Ltd",
	" Limited",
}

// cleanMerchantName standardizes merchant names by removing common suffixes and normalizing format.
func cleanMerchantName(name string) string {
	parts := strings.Fields(titleCase(name))
	if len(parts) > 1 {
		// A trailing run of more than five digits is a processor reference, not part of the name.
		if last := parts[len(parts)-1]; len(last) > 5 && isAllDigits(last) {
			parts = parts[:len(parts)-1]
		}
	}
	name = strings.Join(parts, " ")

	for changed := true; changed; {
		changed = false
		for _, suffix := range merchantSuffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				changed = true
			}
		}
	}

	return strings.TrimSpace(name)
}

// isAllDigits checks if a string contains only digits.
func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var _ Service = (*Client)(nil)
