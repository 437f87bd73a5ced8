// Package smtp предоставляет SMTP транспорт для отправки писем и интерфейсы для его подмены в тестах.
package smtp

import "io"

// Client сессия с почтовым сервером: подмножество методов *smtp.Client,
// нужное для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Mailer открывает авторизованную сессию и знает адрес отправителя.
type Mailer interface {
	Dial() (Client, error)
	From() string
}

var (
	_ Mailer = (*Transport)(nil)
	_ Client = (*smtpClientWrapper)(nil)
)
