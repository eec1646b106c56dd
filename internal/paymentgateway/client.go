package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type Client struct {
	apiURL     string
	apiKey     string
	cashboxID  string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Webkassa.
func NewClient(apiURL, apiKey, cashboxID string) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		cashboxID:  cashboxID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateOrder создаёт заказ в Webkassa и возвращает платёжную ссылку.
func (c *Client) CreateOrder(ctx context.Context, orderID string, amount float64, description, returnURL string) (*CreateOrderResponse, error) {
	req, err := c.newRequest(ctx, "POST", "/orders/create", CreateOrderRequest{
		CashboxID:   c.cashboxID,
		Amount:      amount,
		Currency:    "KZT",
		Description: description,
		OrderID:     orderID,
		ReturnURL:   returnURL,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var orderResp CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, err
	}
	return &orderResp, nil
}

// CheckStatus запрашивает текущее состояние заказа.
func (c *Client) CheckStatus(ctx context.Context, orderID string) (*OrderStatusResponse, error) {
	req, err := c.newRequest(ctx, "GET", "/orders/"+orderID+"/status", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var statusResp OrderStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, err
	}
	return &statusResp, nil
}

// IssueReceipt выпускает фискальный чек по завершённому заказу.
func (c *Client) IssueReceipt(ctx context.Context, orderID string, amount float64, itemName string) (*IssueReceiptResponse, error) {
	req, err := c.newRequest(ctx, "POST", "/receipts/issue", IssueReceiptRequest{
		CashboxID: c.cashboxID,
		OrderID:   orderID,
		Amount:    amount,
		ItemName:  itemName,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var receiptResp IssueReceiptResponse
	if err := json.NewDecoder(resp.Body).Decode(&receiptResp); err != nil {
		return nil, err
	}
	return &receiptResp, nil
}
