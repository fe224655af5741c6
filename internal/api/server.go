// Package api exposes the detection pipeline over HTTP for the UI and
// persistence collaborators. Pipeline degradation (coarse grouping, empty
// rooms) is a successful response; only caller input errors map to 4xx.
package api

import (
	"errors"
	"net/http"

	"github.com/aleksih/moveinventory/internal/inventory"
	"github.com/aleksih/moveinventory/internal/pipeline"
	"github.com/aleksih/moveinventory/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// Server wires the pipeline, store and pricing source into echo handlers.
type Server struct {
	detector *pipeline.Detector
	store    storage.Store
	pricing  *PricingSource
}

// NewServer creates the HTTP surface. store may be nil when persistence is
// not configured (results are then only returned, not saved).
func NewServer(detector *pipeline.Detector, store storage.Store, pricing *PricingSource) *Server {
	return &Server{detector: detector, store: store, pricing: pricing}
}

// Register mounts all routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.Use(middleware.Recover())

	api := e.Group("/api")
	api.POST("/classify", s.handleClassify)
	api.POST("/detect", s.handleDetectPhotos)
	api.POST("/jobs/:id/detect", s.handleDetectJob)
	api.GET("/jobs/:id/detections", s.handleGetDetections)
	api.POST("/estimate", s.handleEstimate)
}

type photosRequest struct {
	PhotoRefs       []string                   `json:"photoRefs"`
	PropertyContext *inventory.PropertyContext `json:"propertyContext,omitempty"`
}

func (s *Server) handleClassify(c echo.Context) error {
	var req photosRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.detector.ClassifyRooms(c.Request().Context(), req.PhotoRefs, req.PropertyContext)
	if err != nil {
		return inputError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleDetectPhotos(c echo.Context) error {
	var req photosRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	detections, err := s.detector.DetectFurniture(c.Request().Context(), req.PhotoRefs)
	if err != nil {
		return inputError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"detections": detections})
}

func (s *Server) handleDetectJob(c echo.Context) error {
	jobID := c.Param("id")
	var req photosRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.detector.DetectInventory(c.Request().Context(), req.PhotoRefs, req.PropertyContext)
	if err != nil {
		return inputError(err)
	}

	if s.store != nil {
		job, err := s.store.GetJob(jobID)
		if err != nil {
			log.Error().Err(err).Str("job", jobID).Msg("failed to load job")
		} else {
			// Re-running detection must not wipe stored customer fields.
			if job == nil {
				job = &storage.Job{ID: jobID}
			}
			if req.PropertyContext != nil {
				job.PropertyContext = req.PropertyContext
			}
			if err := s.store.SaveJob(job); err != nil {
				log.Error().Err(err).Str("job", jobID).Msg("failed to save job")
			} else if err := s.store.SaveDetections(jobID, result.Detections); err != nil {
				log.Error().Err(err).Str("job", jobID).Msg("failed to save detections")
			}
		}
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetDetections(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusNotFound, "persistence not configured")
	}
	detections, err := s.store.GetDetections(c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("job", c.Param("id")).Msg("failed to load detections")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load detections")
	}
	return c.JSON(http.StatusOK, map[string]any{"detections": detections})
}

type estimateRequest struct {
	Detections []inventory.Detection    `json:"detections"`
	Params     inventory.EstimateParams `json:"params"`
}

func (s *Server) handleEstimate(c echo.Context) error {
	var req estimateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	mapping, err := s.pricing.Mapping()
	if err != nil {
		log.Error().Err(err).Msg("failed to load pricing mapping")
		return echo.NewHTTPError(http.StatusInternalServerError, "pricing configuration unavailable")
	}

	result := inventory.CalculateEstimate(req.Detections, mapping, req.Params)
	return c.JSON(http.StatusOK, result)
}

// inputError maps caller input violations to 400; anything else from the
// pipeline is unexpected (the pipeline degrades instead of failing).
func inputError(err error) error {
	if errors.Is(err, pipeline.ErrNoPhotos) || errors.Is(err, pipeline.ErrNoRoomKey) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
