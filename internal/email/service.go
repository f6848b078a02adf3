package email

import (
	"fmt"
	"net/smtp"

	"github.com/shopspring/decimal"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, orderNumber string, total decimal.Decimal, items []OrderItem) error {
	subject := fmt.Sprintf("Order confirmed - %s", orderNumber)
	body := BuildOrderConfirmationBody(orderNumber, total, items)
	return s.send(to, subject, body)
}

// SendOrderShipped sends a shipment notification with tracking details
func (s *Service) SendOrderShipped(to, orderNumber, carrier, trackingNumber, estimatedDelivery string) error {
	subject := fmt.Sprintf("Your order %s has shipped", orderNumber)
	body := BuildOrderShippedBody(orderNumber, carrier, trackingNumber, estimatedDelivery)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
