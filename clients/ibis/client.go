package ibis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	"mynahbackend/config"
	"mynahbackend/core"
	"mynahbackend/models"
)

const (
	matterDetailsPath = "/api/Matter/GetLinkedMatterDetails"
	sendEmailPath     = "/api/Communication/SendEmail"

	noAccountMessage        = "No account found for the provided ID number."
	noAccountRetryMessage   = "No account found for the provided ID number. Please check your ID and try again."
	indexOutOfRangeFragment = "Index was out of range"
)

// IBISClient implements clients.CaseManagementClient over the IBIS envelope API
type IBISClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userID     int
}

func NewIBISClient(cfg config.IBISConfig) (*IBISClient, error) {
	var missing []string
	if cfg.BaseURL == "" {
		missing = append(missing, "IBIS_BASE_URL")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "IBIS_API_KEY")
	}
	if cfg.UserID == "" {
		missing = append(missing, "IBIS_USER_ID")
	}
	if len(missing) > 0 {
		return nil, &core.ConfigError{Component: "IBIS", Missing: missing}
	}

	userID, err := strconv.Atoi(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("IBIS_USER_ID must be numeric: %w", err)
	}

	return &IBISClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		userID:     userID,
	}, nil
}

type envelopeHeader struct {
	ApiKey string `json:"ApiKey"`
}

type envelopeFooter struct {
	ExceptionThrown  bool   `json:"ExceptionThrown"`
	ExceptionMessage string `json:"ExceptionMessage"`
	ResponseMessage  string `json:"ResponseMessage"`
}

type envelope[T any] struct {
	EnvelopeHeader envelopeHeader `json:"EnvelopeHeader"`
	EnvelopeBody   []T            `json:"EnvelopeBody"`
	EnvelopeFooter envelopeFooter `json:"EnvelopeFooter"`
}

type matterQuery struct {
	IdentityNumber string `json:"IdentityNumber"`
	UserId         int    `json:"UserId"`
}

type matterRecord struct {
	Idx                int             `json:"Idx"`
	MatterID           string          `json:"MatterID"`
	Status             string          `json:"Status"`
	OutstandingBalance decimal.Decimal `json:"OutstandingBalance"`
	CapitalAmount      decimal.Decimal `json:"CapitalAmount"`
	MinimumPayment     decimal.Decimal `json:"MinimumPayment"`
	LastPaymentAmount  decimal.Decimal `json:"LastPaymentAmount"`
	LastPaymentDate    string          `json:"LastPaymentDate"`
	ClientName         string          `json:"ClientName"`
	DebtorName         string          `json:"DebtorName"`
	ActivePlan         bool            `json:"ActivePlan"`
	PaymentMethod      string          `json:"PaymentMethod"`
}

type emailMessage struct {
	ToEmailAddress string `json:"ToEmailAddress"`
	EmailBody      string `json:"EmailBody"`
	EmailSubject   string `json:"EmailSubject"`
	MatterId       string `json:"MatterId"`
	UserId         int    `json:"UserId"`
	HId            int    `json:"HId"`
	IsOtp          bool   `json:"IsOtp"`
	HasAttachment  bool   `json:"HasAttachment"`
}

var errUnexpectedResponse = errors.New("failed to decode response")

// statusError carries a non-2xx upstream status
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}

// GetLinkedMatterDetails looks up the debtor's matters and returns the first one
func (c *IBISClient) GetLinkedMatterDetails(ctx context.Context, idNumber string) models.MatterLookupResult {
	log.Printf("📋 Starting to look up linked matter details")

	request := envelope[matterQuery]{
		EnvelopeHeader: envelopeHeader{ApiKey: c.apiKey},
		EnvelopeBody:   []matterQuery{{IdentityNumber: idNumber, UserId: c.userID}},
	}

	var response envelope[matterRecord]
	if err := c.post(ctx, matterDetailsPath, request, &response); err != nil {
		log.Printf("❌ Matter lookup failed: %v", err)
		return models.MatterLookupResult{ErrorMessage: transportErrorMessage("API request failed", err)}
	}

	if response.EnvelopeFooter.ExceptionThrown {
		message := response.EnvelopeFooter.ExceptionMessage
		log.Printf("⚠️ Matter lookup returned an exception: %s", message)
		if strings.Contains(message, indexOutOfRangeFragment) {
			return models.MatterLookupResult{ErrorMessage: noAccountRetryMessage}
		}
		if message == "" {
			message = "Unknown API error"
		}
		return models.MatterLookupResult{ErrorMessage: message}
	}

	if len(response.EnvelopeBody) == 0 {
		return models.MatterLookupResult{ErrorMessage: noAccountMessage}
	}

	record := response.EnvelopeBody[0]
	matter := &models.MatterDetails{
		Idx:                record.Idx,
		MatterID:           record.MatterID,
		Status:             record.Status,
		OutstandingBalance: record.OutstandingBalance,
		CapitalAmount:      record.CapitalAmount,
		MinimumPayment:     record.MinimumPayment,
		LastPaymentAmount:  record.LastPaymentAmount,
		LastPaymentDate:    record.LastPaymentDate,
		ClientName:         strings.TrimSpace(record.ClientName),
		DebtorName:         strings.TrimSpace(record.DebtorName),
		ActivePlan:         record.ActivePlan,
		PaymentMethod:      record.PaymentMethod,
	}

	log.Printf("📋 Completed successfully - found matter %s", matter.MatterID)
	return models.MatterLookupResult{Success: true, Matter: matter}
}

// SendEmail submits an email through the case system's communication endpoint
func (c *IBISClient) SendEmail(ctx context.Context, request clients.EmailRequest) models.EmailResult {
	log.Printf("📋 Starting to send email for matter %s", request.MatterID)

	payload := envelope[emailMessage]{
		EnvelopeHeader: envelopeHeader{ApiKey: c.apiKey},
		EnvelopeBody: []emailMessage{{
			ToEmailAddress: request.To,
			EmailBody:      request.Body,
			EmailSubject:   request.Subject,
			MatterId:       request.MatterID,
			UserId:         c.userID,
		}},
	}

	var response envelope[json.RawMessage]
	if err := c.post(ctx, sendEmailPath, payload, &response); err != nil {
		log.Printf("❌ Send email failed: %v", err)
		return models.EmailResult{ErrorMessage: transportErrorMessage("Email API request failed", err)}
	}

	if response.EnvelopeFooter.ExceptionThrown {
		message := response.EnvelopeFooter.ExceptionMessage
		if message == "" {
			message = "Failed to send email"
		}
		log.Printf("⚠️ Send email returned an exception: %s", message)
		return models.EmailResult{ErrorMessage: message}
	}

	log.Printf("📋 Completed successfully - sent email for matter %s", request.MatterID)
	return models.EmailResult{Success: true}
}

func (c *IBISClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errUnexpectedResponse, err)
	}
	return nil
}

func transportErrorMessage(statusPrefix string, err error) string {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("%s: %d", statusPrefix, statusErr.code)
	}
	if errors.Is(err, errUnexpectedResponse) {
		return fmt.Sprintf("Unexpected error: %v", err)
	}
	return fmt.Sprintf("Network error: %v", err)
}
