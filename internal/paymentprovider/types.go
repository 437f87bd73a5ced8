package paymentprovider

// TransactionDetails номер заказа и сумма в минимальных единицах валюты.
type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

// CustomerDetails данные покупателя.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

// ItemDetails позиция заказа. Сумма price*quantity по позициям должна
// совпадать с GrossAmount, иначе шлюз отклонит запрос.
type ItemDetails struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// TransactionRequest тело запроса Snap на создание транзакции.
type TransactionRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
	ItemDetails        []ItemDetails      `json:"item_details"`
}

// TransactionResponse ответ Snap: токен и ссылка на страницу оплаты.
type TransactionResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type errorResponse struct {
	ErrorMessages []string `json:"error_messages"`
}
