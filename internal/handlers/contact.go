package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/gomail.v2"

	"sakarela/internal/config"
)

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" binding:"required"`
}

// messageSender lets tests swap the SMTP dialer.
type messageSender interface {
	DialAndSend(m ...*gomail.Message) error
}

/*
POST /store/contact
- relays the storefront contact form to the shop mailbox
*/
func ContactForm(smtp config.SMTPConfig) gin.HandlerFunc {
	var sender messageSender
	if smtp.Host != "" {
		sender = gomail.NewDialer(smtp.Host, smtp.Port, smtp.User, smtp.Password)
	}
	return contactForm(smtp, sender)
}

func contactForm(smtp config.SMTPConfig, sender messageSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/contact"
		defer handlePanic(c, route)

		var req ContactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		message := strings.TrimSpace(req.Message)
		if message == "" {
			respondWithError(c, http.StatusBadRequest, route, "message cannot be empty")
			return
		}

		if sender == nil || smtp.ContactRecipient == "" {
			log.Printf("[%s] smtp not configured, dropping message from %s", route, req.Email)
			respondWithError(c, http.StatusServiceUnavailable, route, "contact form is temporarily unavailable")
			return
		}

		m := gomail.NewMessage()
		m.SetHeader("From", smtp.User)
		m.SetHeader("To", smtp.ContactRecipient)
		m.SetHeader("Reply-To", strings.TrimSpace(req.Email))
		m.SetHeader("Subject", fmt.Sprintf("Запитване от %s", strings.TrimSpace(req.Name)))

		body := fmt.Sprintf(
			"Име: %s\nИмейл: %s\nТелефон: %s\n\n%s\n",
			strings.TrimSpace(req.Name),
			strings.TrimSpace(req.Email),
			strings.TrimSpace(req.Phone),
			message,
		)
		m.SetBody("text/plain", body)

		if err := sender.DialAndSend(m); err != nil {
			log.Printf("[%s] send failed: %v", route, err)
			respondWithError(c, http.StatusBadGateway, route, "message could not be delivered")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "message sent"})
	}
}
