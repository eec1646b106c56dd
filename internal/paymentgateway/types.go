package paymentgateway

// Запрос на создание заказа в Webkassa.
type CreateOrderRequest struct {
	CashboxID   string  `json:"cashbox_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	ReturnURL   string  `json:"return_url"`
}

// Ответ Webkassa с платёжной ссылкой.
type CreateOrderResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status"`
}

// Ответ Webkassa о состоянии заказа.
type OrderStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Запрос на выпуск фискального чека по завершённому заказу.
type IssueReceiptRequest struct {
	CashboxID string  `json:"cashbox_id"`
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	ItemName  string  `json:"item_name"`
}

// Ответ Webkassa с данными чека.
type IssueReceiptResponse struct {
	ReceiptID string `json:"receipt_id"`
	Status    string `json:"status"`
}
