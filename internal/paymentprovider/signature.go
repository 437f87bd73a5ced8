package paymentprovider

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Signature считает signature_key уведомления Midtrans:
// hex(sha512(order_id + status_code + gross_amount + server_key)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature сравнивает присланную подпись с ожидаемой за постоянное время.
func (c *Client) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	expected := Signature(orderID, statusCode, grossAmount, c.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureKey)) == 1
}
