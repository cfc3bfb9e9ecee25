// Package smtp отправляет письма через SMTP-сервер с STARTTLS.
package smtp

import (
	"context"
	"errors"
	"io"
)

// Client интерфейс для SMTP клиента.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface интерфейс для SMTP транспорта.
type TransportInterface interface {
	Connect(ctx context.Context) (Client, error)
	Sender() string
}

// ErrNoStartTLS сервер не предлагает STARTTLS, отправка без шифрования не выполняется.
var ErrNoStartTLS = errors.New("starttls not supported")
