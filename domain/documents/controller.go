package documents

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/crpt-gateway/config/router"
	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/constants"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"github.com/akeren/crpt-gateway/pkg/factory"
	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"gorm.io/gorm"
)

// Inbound budget for POST /v1/documents per client. The outgoing budget is enforced by the submitter.
const (
	submissionRequestsPerMinute = 60
	submissionWindow            = time.Minute
)

type ControllerConfig struct {
	SignatureHeader string
	Limiters        factory.RateLimiterFactory
}

func NewDocumentsController(
	db *gorm.DB,
	logger *log.Logger,
	submitter DocumentSubmitter,
	cache ReceiptCache,
	cfg ControllerConfig,
) *router.RESTController {
	repository := NewReceiptRepository(db)
	service := NewDocumentService(logger, submitter, repository, cache)

	var submitLimiter ratelimit.RateLimiter
	if cfg.Limiters != nil {
		submitLimiter = cfg.Limiters.CreateRateLimiterWith(submissionRequestsPerMinute, submissionWindow)
	}

	return newDocumentsRESTController(service, cfg.SignatureHeader, submitLimiter)
}

func newDocumentsRESTController(service DocumentService, signatureHeader string, submitLimiter ratelimit.RateLimiter) *router.RESTController {
	if strings.TrimSpace(signatureHeader) == "" {
		signatureHeader = constants.DefaultSignatureHeader
	}

	return router.NewVersionedRESTController(
		"DocumentsController",
		"v1",
		"/documents",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPostHandler(c, submitLimiter, "", submitDocumentHandler(service, signatureHeader))
			rs.AddPostHandler(c, nil, "/normalize", normalizeDocumentHandler(service))
			rs.AddGetHandler(c, nil, "/receipts", listReceiptsHandler(service))
			rs.AddGetHandler(c, nil, "/receipts/:id", getReceiptHandler(service))
		},
	)
}

func submitDocumentHandler(service DocumentService, signatureHeader string) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		signature := strings.TrimSpace(ctx.GetHeader(signatureHeader))
		if signature == "" {
			logger.Error("Submission without signature header", "header", signatureHeader)
			return router.BadRequestResult("The "+signatureHeader+" header is required", nil)
		}

		raw, errResult := readBody(ctx)
		if errResult != nil {
			return errResult
		}

		response, err := service.Submit(ctx.Request.Context(), raw, signature)
		if err != nil {
			return router.AppErrorResult(err)
		}

		if !response.Accepted {
			logger.Warn("Registration service rejected the document", "upstream_status", response.UpstreamStatus)
			return router.ErrorResult(http.StatusBadGateway, "Registration service rejected the document", response)
		}

		return router.OKResult(response, "Document submitted successfully")
	}
}

func normalizeDocumentHandler(service DocumentService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		raw, errResult := readBody(ctx)
		if errResult != nil {
			return errResult
		}

		response, err := service.Normalize(ctx.Request.Context(), raw)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Document normalized successfully")
	}
}

func listReceiptsHandler(service DocumentService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var query ListReceiptsQuery
		if err := ctx.ShouldBindQuery(&query); err != nil {
			logger.Error("Failed to bind query", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &query)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid query parameters", validationErrors)
			}

			return router.BadRequestResult("Invalid query parameters", nil)
		}

		response, err := service.ListReceipts(ctx.Request.Context(), query.Limit, query.Offset)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Submission receipts retrieved successfully")
	}
}

func getReceiptHandler(service DocumentService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		id, errResult := router.ParseUUIDParam(ctx, "id")
		if errResult != nil {
			return errResult
		}

		response, err := service.FindReceiptByID(ctx.Request.Context(), id.String())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Submission receipt retrieved successfully")
	}
}

func readBody(ctx *router.RequestContext) ([]byte, *router.ServiceResult) {
	raw, err := ctx.GetRawData()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, router.ErrorResult(http.StatusRequestEntityTooLarge, "Request payload too large", nil)
		}
		router.GetLogger(ctx).Error("Failed to read request body", "error", err)
		return nil, router.BadRequestResult("Invalid request body", nil)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, router.BadRequestResult("Request body is empty", nil)
	}
	return raw, nil
}
