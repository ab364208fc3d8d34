package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pipeboard/pipeboard/internal/dto"
	"github.com/pipeboard/pipeboard/internal/mapping"
	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/scope"
	"github.com/pipeboard/pipeboard/internal/services"
	"github.com/pipeboard/pipeboard/internal/sheets"
	"github.com/pipeboard/pipeboard/internal/syncer"
)

type SheetsHandler struct {
	sheetService *services.SheetService
	credService  *services.CredentialService
	orchestrator *syncer.Orchestrator
}

func NewSheetsHandler(sheetService *services.SheetService, credService *services.CredentialService, orchestrator *syncer.Orchestrator) *SheetsHandler {
	return &SheetsHandler{
		sheetService: sheetService,
		credService:  credService,
		orchestrator: orchestrator,
	}
}

// statusForCode maps the sheet error taxonomy onto HTTP statuses.
func statusForCode(code sheets.Code) int {
	switch code {
	case sheets.CodeInvalidLocator:
		return fiber.StatusBadRequest
	case sheets.CodeAuthRequired:
		return fiber.StatusUnauthorized
	case sheets.CodeAccessDenied:
		return fiber.StatusForbidden
	case sheets.CodeNotFound:
		return fiber.StatusNotFound
	case sheets.CodeEmptySource:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusBadGateway
	}
}

func sheetError(c *fiber.Ctx, err error) error {
	code := sheets.CodeOf(err)
	return c.Status(statusForCode(code)).JSON(dto.ErrorResponse{
		Error: true, Message: err.Error(), Code: string(code),
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

// --- Credentials ---

func (h *SheetsHandler) SaveCredential(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SaveCredentialRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.AccessToken == "" {
		return badRequest(c, "access_token is required")
	}

	if err := h.credService.Save(userID, req.AccessToken, req.RefreshToken, req.ExpiresAt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to save credential",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Credential saved"})
}

func (h *SheetsHandler) CredentialStatus(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	status, err := h.credService.Status(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load credential status",
		})
	}
	if status == nil {
		return c.JSON(dto.CredentialStatusResponse{Connected: false})
	}
	return c.JSON(dto.CredentialStatusResponse{
		Connected: true,
		ExpiresAt: &status.ExpiresAt,
		UpdatedAt: &status.UpdatedAt,
	})
}

func (h *SheetsHandler) DeleteCredential(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	if err := h.credService.Disconnect(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to disconnect",
		})
	}
	return c.JSON(fiber.Map{"message": "Disconnected"})
}

// --- Analyze ---

func (h *SheetsHandler) Analyze(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.SheetURL == "" {
		return badRequest(c, "sheet_url is required")
	}
	if req.TypeHint != "" && !models.ValidSheetType(req.TypeHint) {
		return badRequest(c, "invalid type_hint")
	}

	results, err := h.orchestrator.Analyze(c.Context(), userID, req.SheetURL, req.TabNames, req.TypeHint)
	if err != nil {
		return sheetError(c, err)
	}
	return c.JSON(dto.AnalyzeResponse{Results: results})
}

// --- Connections ---

func connectionResponse(conn *models.SheetConnection) dto.ConnectionResponse {
	mappings, err := mapping.DecodeMappings(conn.Mappings)
	if err != nil {
		slog.Warn("connection has unreadable mappings", "connection_id", conn.ID.String(), "error", err)
	}
	return dto.ConnectionResponse{
		ID:           conn.ID.String(),
		SheetURL:     conn.SheetURL,
		SheetName:    conn.SheetName,
		SheetType:    conn.SheetType,
		Mappings:     mappings,
		IsActive:     conn.IsActive,
		LastSyncedAt: conn.LastSyncedAt,
		CreatedAt:    conn.CreatedAt,
	}
}

func (h *SheetsHandler) CreateConnection(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conn, err := h.sheetService.CreateConnection(userID, req.SheetURL, req.SheetName, req.SheetType, req.Mappings)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSheetType), errors.Is(err, services.ErrEmptyMappings):
			return badRequest(c, err.Error())
		case sheets.CodeOf(err) == sheets.CodeInvalidLocator:
			return sheetError(c, err)
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to create connection",
			})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(connectionResponse(conn))
}

func (h *SheetsHandler) ListConnections(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	conns, err := h.sheetService.ListConnections(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list connections",
		})
	}

	resp := make([]dto.ConnectionResponse, len(conns))
	for i := range conns {
		resp[i] = connectionResponse(&conns[i])
	}
	return c.JSON(resp)
}

func (h *SheetsHandler) connectionID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func (h *SheetsHandler) UpdateConnection(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	connID, err := h.connectionID(c)
	if err != nil {
		return badRequest(c, "Invalid connection id")
	}

	var req dto.UpdateConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conn, err := h.sheetService.UpdateConnection(userID, connID, req.Mappings, req.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConnectionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrEmptyMappings):
			return badRequest(c, err.Error())
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to update connection",
			})
		}
	}
	return c.JSON(connectionResponse(conn))
}

func (h *SheetsHandler) DeleteConnection(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	connID, err := h.connectionID(c)
	if err != nil {
		return badRequest(c, "Invalid connection id")
	}

	if err := h.sheetService.DeactivateConnection(userID, connID); err != nil {
		if errors.Is(err, services.ErrConnectionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to disconnect sheet",
		})
	}
	return c.JSON(fiber.Map{"message": "Connection removed"})
}

// --- Sync ---

func (h *SheetsHandler) SyncUser(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	summaries, err := h.orchestrator.SyncUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Sync failed to start",
		})
	}
	return c.JSON(dto.SyncResponse{Summaries: summaries})
}

func (h *SheetsHandler) SyncConnection(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	connID, err := h.connectionID(c)
	if err != nil {
		return badRequest(c, "Invalid connection id")
	}

	conn, err := h.sheetService.GetConnection(userID, connID)
	if err != nil {
		if errors.Is(err, services.ErrConnectionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load connection",
		})
	}

	summary, _ := h.orchestrator.SyncConnection(c.Context(), conn)
	return c.JSON(dto.SyncResponse{Summaries: []*syncer.Summary{summary}})
}

// SyncAll is the admin batch surface; it runs system-wide across users.
func (h *SheetsHandler) SyncAll(c *fiber.Ctx) error {
	summaries, err := h.orchestrator.SyncAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Batch sync failed to start",
		})
	}
	return c.JSON(dto.SyncResponse{Summaries: summaries})
}

// --- Write-back ---

func (h *SheetsHandler) Writeback(c *fiber.Ctx) error {
	userID, err := scope.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.WritebackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	connID, err := uuid.Parse(req.ConnectionID)
	if err != nil {
		return badRequest(c, "Invalid connection_id")
	}

	err = h.sheetService.Writeback(userID, connID, req.Operation, req.SourceRowNumber, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConnectionNotFound), errors.Is(err, services.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrInvalidOperation):
			return badRequest(c, err.Error())
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Write-back failed",
			})
		}
	}
	return c.JSON(fiber.Map{"message": "Record updated"})
}
