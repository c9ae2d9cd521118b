package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"nexusdesk/analyzer"
	"nexusdesk/dispatch"
	"nexusdesk/models"
	"nexusdesk/storage"
	"nexusdesk/utils"
)

type InboxController struct {
	repo        storage.MessageRepository
	analyzer    analyzer.Analyzer
	dispatcher  dispatch.Dispatcher
	defaultTone string
	logger      *logrus.Entry
}

func NewInboxController(repo storage.MessageRepository, a analyzer.Analyzer, d dispatch.Dispatcher, defaultTone string, logger *logrus.Entry) *InboxController {
	return &InboxController{
		repo:        repo,
		analyzer:    a,
		dispatcher:  d,
		defaultTone: defaultTone,
		logger:      logger,
	}
}

type analyzeRequest struct {
	ID   uint   `json:"id"`
	Text string `json:"text" validate:"required,max=10000"`
	Tone string `json:"tone" validate:"omitempty,max=40"`
}

type sendRequest struct {
	Reply string `json:"reply" validate:"required,max=5000"`
}

// GetMessages returns the whole inbox in id order
func (ic *InboxController) GetMessages(c *fiber.Ctx) error {
	msgs, err := ic.repo.List(c.UserContext())
	if err != nil {
		utils.LogError("list_messages_failed", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch messages", nil)
	}
	return c.JSON(msgs)
}

// AnalyzeTicket asks the language model for sentiment, a drafted reply and a
// priority. The result is stored on the message when the id is known.
func (ic *InboxController) AnalyzeTicket(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if req.Tone == "" {
		req.Tone = ic.defaultTone
	}

	ctx := c.UserContext()
	analysis, err := ic.analyzer.Analyze(ctx, req.Text, req.Tone)
	if err != nil {
		analyzeOutcomes.WithLabelValues("error").Inc()
		utils.LogError("analyze_failed", err, map[string]interface{}{
			"message_id": req.ID,
			"tone":       req.Tone,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "AI Busy",
		})
	}
	analyzeOutcomes.WithLabelValues("ok").Inc()

	if req.ID != 0 {
		if _, err := ic.repo.ApplyAnalysis(ctx, req.ID, analysis); err != nil && !errors.Is(err, storage.ErrNotFound) {
			ic.logger.WithError(err).WithField("message_id", req.ID).Warn("Failed to store analysis")
		}
	}

	return c.JSON(analysis)
}

// SendReply delivers the reply to the customer and closes the message
func (ic *InboxController) SendReply(c *fiber.Ctx) error {
	id, ok := utils.ParseID(c.Params("id"))
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid message id", nil)
	}

	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	req.Reply = strings.TrimSpace(req.Reply)
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
	}

	ctx := c.UserContext()
	msg, err := ic.repo.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Message not found", nil)
	}
	if err != nil {
		utils.LogError("load_message_failed", err, map[string]interface{}{"message_id": id})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load message", nil)
	}
	if msg.Status == models.StatusClosed {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Message already closed", nil)
	}

	if err := ic.dispatcher.Dispatch(ctx, msg, req.Reply); err != nil {
		sendOutcomes.WithLabelValues(string(msg.Platform), "error").Inc()
		if errors.Is(err, dispatch.ErrNoContact) {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Message has no reply contact", err)
		}
		utils.LogError("dispatch_failed", err, map[string]interface{}{
			"message_id": id,
			"platform":   msg.Platform,
		})
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to deliver reply", err)
	}
	sendOutcomes.WithLabelValues(string(msg.Platform), "ok").Inc()

	closed, err := ic.repo.MarkClosed(ctx, id)
	if err != nil {
		utils.LogError("close_message_failed", err, map[string]interface{}{"message_id": id})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Reply sent but message could not be closed", nil)
	}

	utils.LogEvent("reply_sent", map[string]interface{}{
		"message_id": id,
		"platform":   msg.Platform,
	})
	return c.JSON(closed)
}
