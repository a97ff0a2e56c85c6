// Package httpserver exposes the voicegate HTTP API handlers.
package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
	"github.com/dkhromov/voicegate/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	enroll     service.EnrollmentService
	challenges service.ChallengeService
	decisions  service.DecisionService
	signKey    []byte
	accessTTL  time.Duration
}

// New constructs an HTTP server with injected services.
func New(enroll service.EnrollmentService, challenges service.ChallengeService, decisions service.DecisionService, signKey []byte, accessTTL time.Duration) *Server {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &Server{
		enroll:     enroll,
		challenges: challenges,
		decisions:  decisions,
		signKey:    signKey,
		accessTTL:  accessTTL,
	}
}

// Router builds the echo engine with all routes and middleware registered.
func (s *Server) Router(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(Recover(log), Logging(log))

	e.GET("/health", s.health)

	v1 := e.Group("/api/v1")
	v1.POST("/enroll", s.handleEnroll)
	v1.GET("/identities", s.handleListIdentities)
	v1.GET("/identities/:id", s.handleGetIdentity)
	v1.DELETE("/identities/:id", s.handleDeleteIdentity)
	v1.POST("/identities/:id/enrollment", s.handleUpdateEnrollment)
	v1.POST("/challenges", s.handleCreateChallenge)
	v1.GET("/challenges/:id", s.handleGetChallenge)
	v1.POST("/verify", s.handleVerify)
	v1.POST("/identify", s.handleIdentify)
	v1.GET("/attempts", s.handleAttempts)
	return e
}

type audioPayload struct {
	Samples    []float32 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

func (p audioPayload) toModel() model.Audio {
	return model.Audio{Samples: p.Samples, SampleRate: p.SampleRate}
}

type enrollRequest struct {
	Name    string         `json:"name"`
	Samples []audioPayload `json:"samples"`
}

type identityResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	NumSamples int       `json:"num_samples"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) handleEnroll(c echo.Context) error {
	var req enrollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	samples := make([]model.Audio, 0, len(req.Samples))
	for _, p := range req.Samples {
		samples = append(samples, p.toModel())
	}

	ident, err := s.enroll.Enroll(c.Request().Context(), req.Name, samples)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, identityResponse{
		ID:         ident.ID.String(),
		Name:       ident.Name,
		NumSamples: len(ident.Embeddings),
		CreatedAt:  ident.CreatedAt,
	})
}

func (s *Server) handleListIdentities(c echo.Context) error {
	list, err := s.enroll.List(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	out := make([]identityResponse, 0, len(list))
	for _, sum := range list {
		out = append(out, identityResponse{
			ID:         sum.ID.String(),
			Name:       sum.Name,
			NumSamples: sum.NumSamples,
			CreatedAt:  sum.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetIdentity(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	ident, err := s.enroll.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, identityResponse{
		ID:         ident.ID.String(),
		Name:       ident.Name,
		NumSamples: len(ident.Embeddings),
		CreatedAt:  ident.CreatedAt,
	})
}

func (s *Server) handleDeleteIdentity(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	if err := s.enroll.Delete(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type updateEnrollmentRequest struct {
	Samples []audioPayload `json:"samples"`
	Replace bool           `json:"replace"`
}

func (s *Server) handleUpdateEnrollment(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	var req updateEnrollmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	samples := make([]model.Audio, 0, len(req.Samples))
	for _, p := range req.Samples {
		samples = append(samples, p.toModel())
	}

	n, err := s.enroll.Update(c.Request().Context(), id, samples, req.Replace)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"num_samples": n})
}

type createChallengeRequest struct {
	IdentityID *string `json:"identity_id"`
}

type challengeResponse struct {
	ID        string    `json:"id"`
	Sentence  string    `json:"sentence"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	State     string    `json:"state"`
}

func toChallengeResponse(ch *model.Challenge) challengeResponse {
	return challengeResponse{
		ID:        ch.ID.String(),
		Sentence:  ch.Sentence,
		IssuedAt:  ch.IssuedAt,
		ExpiresAt: ch.ExpiresAt,
		State:     string(ch.State),
	}
}

func (s *Server) handleCreateChallenge(c echo.Context) error {
	var req createChallengeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	var identityID *uuid.UUID
	if req.IdentityID != nil {
		id, err := parseID(*req.IdentityID)
		if err != nil {
			return err
		}
		identityID = &id
	}

	ch, err := s.challenges.Generate(c.Request().Context(), identityID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, toChallengeResponse(ch))
}

func (s *Server) handleGetChallenge(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	ch, err := s.challenges.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toChallengeResponse(ch))
}

type verifyRequest struct {
	IdentityID  string       `json:"identity_id"`
	Audio       audioPayload `json:"audio"`
	ChallengeID *string      `json:"challenge_id"`
}

type livenessResponse struct {
	Matched    bool    `json:"matched"`
	Score      float64 `json:"score"`
	Transcript string  `json:"transcript"`
	Sentence   string  `json:"sentence"`
}

type verifyResponse struct {
	Accepted    bool              `json:"accepted"`
	Similarity  float64           `json:"similarity"`
	Reason      string            `json:"reason"`
	Liveness    *livenessResponse `json:"liveness,omitempty"`
	AccessToken string            `json:"access_token,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

func (s *Server) handleVerify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	id, err := parseID(req.IdentityID)
	if err != nil {
		return err
	}
	var challengeID *uuid.UUID
	if req.ChallengeID != nil {
		chID, err := parseID(*req.ChallengeID)
		if err != nil {
			return err
		}
		challengeID = &chID
	}

	res, err := s.decisions.Verify(c.Request().Context(), service.VerifyRequest{
		IdentityID:  id,
		Audio:       req.Audio.toModel(),
		ChallengeID: challengeID,
		ClientIP:    c.RealIP(),
	})
	if err != nil && !isDecisionError(err) {
		return mapError(err)
	}

	resp := verifyResponse{
		Accepted:   res.Accepted,
		Similarity: res.Similarity,
		Reason:     res.Reason,
	}
	if res.Liveness != nil {
		resp.Liveness = &livenessResponse{
			Matched:    res.Liveness.Matched,
			Score:      res.Liveness.Score,
			Transcript: res.Liveness.Transcript,
			Sentence:   res.Liveness.Sentence,
		}
	}
	if res.Accepted {
		token, exp, err := s.issueAccessToken(id)
		if err != nil {
			return mapError(err)
		}
		resp.AccessToken = token
		resp.ExpiresAt = &exp
	}

	status := http.StatusOK
	if err != nil {
		status = decisionStatus(err)
	}
	return c.JSON(status, resp)
}

type identifyRequest struct {
	Audio audioPayload `json:"audio"`
	TopK  int          `json:"top_k"`
}

type candidateResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

func (s *Server) handleIdentify(c echo.Context) error {
	var req identifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	candidates, err := s.decisions.Identify(c.Request().Context(), req.Audio.toModel(), req.TopK)
	if err != nil {
		return mapError(err)
	}
	out := make([]candidateResponse, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, candidateResponse{
			ID:         cand.Identity.ID.String(),
			Name:       cand.Identity.Name,
			Similarity: cand.Similarity,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"candidates": out})
}

type attemptResponse struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Mode        string    `json:"mode"`
	ClaimedID   *string   `json:"claimed_id,omitempty"`
	ResultID    *string   `json:"result_id,omitempty"`
	Similarity  float64   `json:"similarity"`
	ChallengeID *string   `json:"challenge_id,omitempty"`
	TextScore   *float64  `json:"text_score,omitempty"`
	Decision    string    `json:"decision"`
	Reason      string    `json:"reason"`
}

func (s *Server) handleAttempts(c echo.Context) error {
	var claimedID *uuid.UUID
	if raw := c.QueryParam("claimed_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return err
		}
		claimedID = &id
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	attempts, err := s.decisions.AttemptLog(c.Request().Context(), claimedID, limit)
	if err != nil {
		return mapError(err)
	}
	out := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptResponse{
			ID:          a.ID,
			CreatedAt:   a.CreatedAt,
			Mode:        string(a.Mode),
			ClaimedID:   uuidString(a.ClaimedID),
			ResultID:    uuidString(a.ResultID),
			Similarity:  a.Similarity,
			ChallengeID: uuidString(a.ChallengeID),
			TextScore:   a.TextScore,
			Decision:    string(a.Decision),
			Reason:      a.Reason,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// isDecisionError reports whether Verify returned a liveness or identity
// error that still carries a meaningful result body.
func isDecisionError(err error) bool {
	return errors.Is(err, errs.ErrChallengeNotFound) ||
		errors.Is(err, errs.ErrChallengeExpired) ||
		errors.Is(err, errs.ErrChallengeConsumed)
}

func decisionStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrChallengeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrChallengeExpired):
		return http.StatusGone
	case errors.Is(err, errs.ErrChallengeConsumed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// mapError translates service errors to HTTP status codes.
func mapError(err error) error {
	switch {
	case errors.Is(err, errs.ErrIdentityNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "identity not found")
	case errors.Is(err, errs.ErrChallengeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "challenge not found")
	case errors.Is(err, errs.ErrChallengeExpired):
		return echo.NewHTTPError(http.StatusGone, "challenge expired")
	case errors.Is(err, errs.ErrChallengeConsumed):
		return echo.NewHTTPError(http.StatusConflict, "challenge already consumed")
	case errors.Is(err, errs.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, "already exists")
	case errors.Is(err, errs.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many failed attempts")
	case errors.Is(err, errs.ErrInsufficientSamples),
		errors.Is(err, errs.ErrDimensionMismatch),
		errors.Is(err, errs.ErrInvalidEmbedding):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrExtractionTimeout),
		errors.Is(err, errs.ErrTranscriptionTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "upstream timeout")
	case errors.Is(err, errs.ErrExtractionFailed),
		errors.Is(err, errs.ErrTranscriptionFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream failure")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal")
	}
}
