package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const mercadoPagoBaseURL = "https://api.mercadopago.com"

// MercadoPagoGateway reads payments from the Mercado Pago REST API.
type MercadoPagoGateway struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

// NewMercadoPagoGateway creates a gateway authenticated with an access token.
func NewMercadoPagoGateway(accessToken string) *MercadoPagoGateway {
	return &MercadoPagoGateway{
		accessToken: accessToken,
		baseURL:     mercadoPagoBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL points the gateway at another host (sandbox, tests).
func (g *MercadoPagoGateway) WithBaseURL(baseURL string) *MercadoPagoGateway {
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *MercadoPagoGateway) Name() string {
	return "mercadopago"
}

type mercadoPagoPayment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	TransactionAmount float64     `json:"transaction_amount"`
	CurrencyID        string      `json:"currency_id"`
	Description       string      `json:"description"`
	ExternalReference string      `json:"external_reference"`
	DateApproved      *time.Time  `json:"date_approved"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

// GetPayment fetches GET /v1/payments/{id}.
func (g *MercadoPagoGateway) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if id == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	url := fmt.Sprintf("%s/v1/payments/%s", g.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Mercado Pago: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Mercado Pago response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPaymentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mercado pago returned status %d: %s", resp.StatusCode, string(body))
	}

	var result mercadoPagoPayment
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode Mercado Pago payment: %w", err)
	}

	return &Payment{
		ID:                result.ID.String(),
		Status:            result.Status,
		Amount:            result.TransactionAmount,
		Currency:          result.CurrencyID,
		ExternalReference: strings.ToLower(strings.TrimSpace(result.ExternalReference)),
		PayerEmail:        strings.ToLower(strings.TrimSpace(result.Payer.Email)),
		Description:       result.Description,
		DateApproved:      result.DateApproved,
		Raw:               body,
	}, nil
}
