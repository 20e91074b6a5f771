package controller

import (
	"path/filepath"
	"strings"

	"docchat-be/internal/constant"
	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// conversationIdHeader threads the conversation identity explicitly instead
// of an ambient "current request id" global, so multiple tabs don't collide.
const conversationIdHeader = "X-Conversation-Id"

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	LoadFromWeb(ctx *fiber.Ctx) error
	CustomChat(ctx *fiber.Ctx) error
	NewConversation(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IConversationService
}

func NewChatController(service service.IConversationService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	// Paths mirror what the dashboard already calls.
	r.Post("/upload", c.Upload)
	r.Post("/load-from-web", c.LoadFromWeb)
	r.Post("/custom-chat", c.CustomChat)
	r.Post("/conversation/new", c.NewConversation)
}

// conversationId reads the header or mints a fresh id the client keeps using.
func conversationId(ctx *fiber.Ctx) string {
	if id := ctx.Get(conversationIdHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

func (c *chatController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Missing file field", err)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !constant.AllowedUploadExtensions[ext] {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Unsupported file type. Allowed: .pdf, .txt, .docx", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Unable to read uploaded file", err)
	}
	defer file.Close()

	res, err := c.service.IngestFile(ctx.Context(), conversationId(ctx), fileHeader.Filename, file)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *chatController) LoadFromWeb(ctx *fiber.Ctx) error {
	var req dto.LoadFromWebRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.IngestURL(ctx.Context(), conversationId(ctx), req.Url)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success load from web", res))
}

func (c *chatController) CustomChat(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Invalid request body", err)
	}

	res, err := c.service.Ask(ctx.Context(), conversationId(ctx), req.Question)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) NewConversation(ctx *fiber.Ctx) error {
	res, err := c.service.NewConversation(ctx.Context(), conversationId(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start new conversation", res))
}
