package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/altura-labs/recommendation/internal/middleware"
	"github.com/altura-labs/recommendation/internal/models"
	"github.com/altura-labs/recommendation/internal/services"
	"github.com/altura-labs/recommendation/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Recommender interface {
	Recommend(ctx context.Context, req models.SearchRequest, requestID string) (*models.SearchResponse, error)
}

type RecommendationHandler struct {
	service Recommender
	logger  *logrus.Logger
}

func NewRecommendationHandler(service Recommender, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRecommend runs a neural search for the posted text
func (h *RecommendationHandler) HandleRecommend(c *gin.Context) {
	startTime := time.Now()
	requestID := middleware.GetRequestID(c)

	req, err := decodeSearchRequest(c)
	if err != nil {
		h.writeError(c, requestID, err)
		return
	}

	response, err := h.service.Recommend(c.Request.Context(), req, requestID)
	if err != nil {
		h.writeError(c, requestID, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"results_count": len(response.SimilarDocuments),
		"response_time": time.Since(startTime).Milliseconds(),
		"request_id":    requestID,
	}).Info("Recommendation completed successfully")

	utils.SuccessResponse(c, http.StatusOK, response)
}

func (h *RecommendationHandler) writeError(c *gin.Context, requestID string, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		utils.ErrorResponse(c, http.StatusBadRequest, validationErr.Error())
		return
	}

	kind := services.ErrorKind(err)
	h.logger.WithError(err).WithFields(logrus.Fields{
		"request_id": requestID,
		"type":       kind,
	}).Error("Recommendation failed")

	utils.TypedErrorResponse(c, http.StatusInternalServerError, err.Error(), kind)
}

// DecodeError is a request body that is not a valid search request. It is
// reported like any other failure, as a 500 with its kind.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Kind() string { return "JSONDecodeError" }

// decodeSearchRequest treats an empty body as {} so the caller gets the
// missing-field error rather than a parse error.
func decodeSearchRequest(c *gin.Context) (models.SearchRequest, error) {
	var req models.SearchRequest

	body, err := c.GetRawData()
	if err != nil {
		return req, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, &DecodeError{Err: err}
	}
	return req, nil
}
