package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/dto"
	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/serverutils"
	"github.com/mbuchwa/rag-urz-ollama/internal/service"
)

type DocumentController struct {
	docService service.IDocumentService
}

func NewDocumentController(docService service.IDocumentService) *DocumentController {
	return &DocumentController{
		docService: docService,
	}
}

func (c *DocumentController) RegisterRoutes(api fiber.Router) {
	h := api.Group("/documents/v1")
	h.Post("/", c.Ingest)
	h.Get("/", c.List)
	h.Delete("/:id", c.Delete)
}

func (c *DocumentController) Ingest(ctx *fiber.Ctx) error {
	req := new(dto.IngestDocumentRequest)
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.docService.Ingest(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success ingest document", res))
}

func (c *DocumentController) List(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.docService.List(ctx.Context(), limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *DocumentController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}

	if err := c.docService.Delete(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}
