package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartdoc-health/smartdoc-api/internal/reminders"
)

var startedAt = time.Now()

// WhatsAppWebhook receives inbound Twilio messages. Twilio expects a fast
// 200, so the message is processed and answered asynchronously.
func (h *Handler) WhatsAppWebhook(c *gin.Context) {
	body := c.PostForm("Body")
	from := c.PostForm("From")
	messageSID := c.PostForm("MessageSid")
	if body == "" || from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Body and From are required"})
		return
	}
	h.Log.Info().Str("from", from).Str("sid", messageSID).Msg("inbound whatsapp message")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		reply := h.Bot.ProcessIncomingMessage(ctx, from, body)
		if err := h.Twilio.SendWhatsApp(from, reply); err != nil {
			h.Log.Error().Err(err).Str("to", from).Msg("failed to send whatsapp reply")
		}
	}()

	c.String(http.StatusOK, "OK")
}

// WebhookStatus is the webhook health payload.
func (h *Handler) WebhookStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "running",
		"uptime":  time.Since(startedAt).String(),
	})
}

type sendWhatsAppRequest struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SendWhatsAppMessage sends a single outbound message.
func (h *Handler) SendWhatsAppMessage(c *gin.Context) {
	var req sendWhatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "to and message are required"})
		return
	}
	if err := h.Twilio.SendWhatsApp(req.To, req.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent"})
}

type sendBulkRequest struct {
	Recipients []string `json:"recipients" binding:"required"`
	Message    string   `json:"message" binding:"required"`
}

// SendBulkWhatsAppMessages fans one message out to many recipients with
// per-recipient results.
func (h *Handler) SendBulkWhatsAppMessages(c *gin.Context) {
	var req sendBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Recipients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "recipients and message are required"})
		return
	}

	results := h.Twilio.SendBulkMessages(req.Recipients, req.Message)
	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   len(results),
		"sent":    sent,
		"failed":  len(results) - sent,
		"results": results,
	})
}

type sendTemplateRequest struct {
	To         string            `json:"to" binding:"required"`
	ContentSID string            `json:"contentSid" binding:"required"`
	Variables  map[string]string `json:"variables"`
}

// SendTemplateMessage sends a pre-approved WhatsApp content template.
func (h *Handler) SendTemplateMessage(c *gin.Context) {
	var req sendTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "to and contentSid are required"})
		return
	}
	if err := h.Twilio.SendTemplateMessage(req.To, req.ContentSID, req.Variables); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send template message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template message sent"})
}

type scheduleReminderRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	DateTime    string `json:"dateTime" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// ScheduleReminder registers a one-shot WhatsApp reminder via the API.
func (h *Handler) ScheduleReminder(c *gin.Context) {
	var req scheduleReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phoneNumber, dateTime and message are required"})
		return
	}
	at, err := reminders.ParseDateTime(req.DateTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	r, err := h.Scheduler.Schedule(req.PhoneNumber, at, req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "reminder": r})
}

// CancelReminder deletes an unsent reminder. Already-sent reminders look the
// same as unknown ones to the caller: there is nothing left to cancel.
func (h *Handler) CancelReminder(c *gin.Context) {
	if err := h.Scheduler.Cancel(c.Param("reminderId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reminder cancelled"})
}

// GetUserReminders lists the unsent reminders for a phone number.
func (h *Handler) GetUserReminders(c *gin.Context) {
	list := h.Scheduler.UserReminders(c.Param("phoneNumber"))
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "reminders": list})
}

// WhatsAppStats reports conversational state counters.
func (h *Handler) WhatsAppStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"activeSessions": h.Sessions.Count(),
		"reminders":      h.Store.Count(),
		"uptime":         time.Since(startedAt).String(),
	})
}
