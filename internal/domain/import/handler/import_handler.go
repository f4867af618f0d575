// Package handler exposes the import pipeline as connect RPC procedures.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/FACorreiaa/echo-import/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/echo-import/internal/domain/import/service"
	"github.com/FACorreiaa/echo-import/internal/domain/import/upload"
	"github.com/FACorreiaa/echo-import/internal/domain/import/validator"
	"github.com/FACorreiaa/echo-import/pkg/interceptors"
)

// ServiceName is the fully-qualified RPC service name.
const ServiceName = "echo.import.v1.ImportService"

// Procedure paths.
const (
	PreviewImportProcedure  = "/" + ServiceName + "/PreviewImport"
	CommitImportProcedure   = "/" + ServiceName + "/CommitImport"
	GetImportLogProcedure   = "/" + ServiceName + "/GetImportLog"
	ListImportLogsProcedure = "/" + ServiceName + "/ListImportLogs"
)

// ImportHandler handles Import service RPCs
type ImportHandler struct {
	importSvc *importservice.ImportService
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc *importservice.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		logger:    logger,
	}
}

// Routes returns the mount path and handler for all procedures. The JSON
// codec is always installed; opts typically carry interceptors.
func (h *ImportHandler) Routes(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PreviewImportProcedure, connect.NewUnaryHandler(PreviewImportProcedure, h.PreviewImport, opts...))
	mux.Handle(CommitImportProcedure, connect.NewUnaryHandler(CommitImportProcedure, h.CommitImport, opts...))
	mux.Handle(GetImportLogProcedure, connect.NewUnaryHandler(GetImportLogProcedure, h.GetImportLog, opts...))
	mux.Handle(ListImportLogsProcedure, connect.NewUnaryHandler(ListImportLogsProcedure, h.ListImportLogs, opts...))
	return "/" + ServiceName + "/", mux
}

// PreviewImport parses an uploaded statement and suggests a column mapping.
func (h *ImportHandler) PreviewImport(ctx context.Context, req *connect.Request[PreviewImportRequest]) (*connect.Response[PreviewImportResponse], error) {
	userID, ok := interceptors.GetUserIDFromContext(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("user not authenticated"))
	}

	result, err := h.importSvc.Preview(ctx, userID, fileFrom(req.Msg.FileName, req.Msg.ContentType, req.Msg.Content))
	if err != nil {
		return nil, h.toConnectError(err, "failed to preview import")
	}
	return connect.NewResponse(&PreviewImportResponse{Preview: result}), nil
}

// CommitImport imports a statement with a confirmed mapping.
func (h *ImportHandler) CommitImport(ctx context.Context, req *connect.Request[CommitImportRequest]) (*connect.Response[CommitImportResponse], error) {
	userID, ok := interceptors.GetUserIDFromContext(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("user not authenticated"))
	}

	accountID, err := uuid.Parse(req.Msg.AccountID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid account_id: %w", err))
	}

	var defaultCategory *uuid.UUID
	if req.Msg.DefaultCategoryID != "" {
		id, err := uuid.Parse(req.Msg.DefaultCategoryID)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid default_category_id: %w", err))
		}
		defaultCategory = &id
	}

	result, err := h.importSvc.Commit(ctx, userID, importservice.CommitRequest{
		File:              fileFrom(req.Msg.FileName, req.Msg.ContentType, req.Msg.Content),
		AccountID:         accountID,
		DefaultCategoryID: defaultCategory,
		Mapping:           req.Msg.Mapping,
	})
	if err != nil {
		return nil, h.toConnectError(err, "failed to commit import")
	}
	return connect.NewResponse(&CommitImportResponse{Result: result}), nil
}

// GetImportLog returns one import log of the caller.
func (h *ImportHandler) GetImportLog(ctx context.Context, req *connect.Request[GetImportLogRequest]) (*connect.Response[GetImportLogResponse], error) {
	userID, ok := interceptors.GetUserIDFromContext(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("user not authenticated"))
	}

	logID, err := uuid.Parse(req.Msg.LogID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid log_id: %w", err))
	}

	log, err := h.importSvc.GetLog(ctx, userID, logID)
	if err != nil {
		return nil, h.toConnectError(err, "failed to get import log")
	}
	return connect.NewResponse(&GetImportLogResponse{Log: log}), nil
}

// ListImportLogs returns the caller's import history.
func (h *ImportHandler) ListImportLogs(ctx context.Context, req *connect.Request[ListImportLogsRequest]) (*connect.Response[ListImportLogsResponse], error) {
	userID, ok := interceptors.GetUserIDFromContext(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("user not authenticated"))
	}

	logs, err := h.importSvc.ListLogs(ctx, userID, req.Msg.Limit, req.Msg.Offset)
	if err != nil {
		return nil, h.toConnectError(err, "failed to list import logs")
	}
	if logs == nil {
		logs = []repository.ImportLog{}
	}
	return connect.NewResponse(&ListImportLogsResponse{Logs: logs}), nil
}

func fileFrom(name, contentType string, content []byte) upload.File {
	return upload.File{Name: name, ContentType: contentType, Size: int64(len(content)), Data: content}
}

// toConnectError maps pipeline errors to RPC codes. Persistence failures are
// logged; their detail is not sent to the client.
func (h *ImportHandler) toConnectError(err error, msg string) error {
	switch {
	case errors.Is(err, validator.ErrFileTooLarge):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, validator.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrUnreadableFile),
		errors.Is(err, parser.ErrEmptyFile),
		errors.Is(err, importservice.ErrInvalidMapping),
		errors.Is(err, importservice.ErrInvalidRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, repository.ErrLogNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		h.logger.Error(msg, slog.Any("error", err))
		return connect.NewError(connect.CodeInternal, errors.New(msg))
	}
}
