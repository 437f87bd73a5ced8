// Package models содержит доменные структуры платформы: пользователей, тарифы,
// подписки, курсы и прогресс, а также DTO для JSON-запросов.
package models

import "time"

// SubscriptionStatus статус подписки.
type SubscriptionStatus string

const (
	// StatusPending подписка создана, оплата ещё не подтверждена шлюзом.
	StatusPending SubscriptionStatus = "pending"
	// StatusActive оплата подтверждена.
	StatusActive SubscriptionStatus = "active"
	// StatusCancelled оплата отклонена, отменена или просрочена.
	StatusCancelled SubscriptionStatus = "cancelled"
	// StatusExpired вычисляемый статус: активная подписка с истёкшим сроком.
	// В хранилище не записывается.
	StatusExpired SubscriptionStatus = "expired"
)

// Terminal сообщает, является ли статус конечным для платёжного потока.
func (s SubscriptionStatus) Terminal() bool {
	return s == StatusActive || s == StatusCancelled
}

// Plan тарифный план. Цена хранится в минимальных единицах валюты.
type Plan struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	DurationDays int       `json:"duration"`
	Features     []string  `json:"features"`
	CreatedAt    time.Time `json:"created_at"`
}

// Subscription подписка пользователя на тариф. ID подписки используется
// как order_id в платёжном шлюзе.
type Subscription struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	PlanID          string             `json:"plan_id"`
	Status          SubscriptionStatus `json:"status"`
	StartDate       time.Time          `json:"start_date"`
	EndDate         time.Time          `json:"end_date"`
	PaymentProvider string             `json:"payment_provider"`
	PaymentID       *string            `json:"payment_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// SubscriptionView текущая подписка пользователя вместе с тарифом и
// вычисленным на момент запроса статусом.
type SubscriptionView struct {
	Subscription    *Subscription      `json:"subscription"`
	Plan            *Plan              `json:"plan,omitempty"`
	EffectiveStatus SubscriptionStatus `json:"effective_status"`
	Entitled        bool               `json:"entitled"`
	DaysLeft        int                `json:"days_left"`
}

// Checkout результат создания подписки: данные для перехода к оплате.
type Checkout struct {
	SubscriptionID string `json:"subscription_id"`
	Token          string `json:"token"`
	RedirectURL    string `json:"redirect_url"`
}

// CheckoutRequest тело запроса на оформление подписки.
type CheckoutRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// PaymentNotification уведомление шлюза о статусе транзакции.
type PaymentNotification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

// SubscriptionEvent событие смены статуса подписки, публикуемое в брокер.
type SubscriptionEvent struct {
	SubscriptionID string             `json:"subscription_id"`
	UserID         string             `json:"user_id"`
	Email          string             `json:"email"`
	Name           string             `json:"name"`
	PlanName       string             `json:"plan_name"`
	Status         SubscriptionStatus `json:"status"`
	EndDate        time.Time          `json:"end_date"`
}

// StatusUpdate результат условного обновления статуса подписки в хранилище.
type StatusUpdate struct {
	// Previous статус до обновления либо текущий статус, если обновление отклонено.
	Previous SubscriptionStatus
	// Updated строка была изменена.
	Updated bool
}
