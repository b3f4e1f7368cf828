package api

import (
	"net/http"
	"strconv"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/internal/service"

	"github.com/gin-gonic/gin"
)

type curationRoutes struct {
	cs service.CurationServiceI
}

func NewCurationRoutes(handler *gin.RouterGroup, cs service.CurationServiceI, auth ...gin.HandlerFunc) {
	r := &curationRoutes{cs: cs}

	h := handler.Group("/curation")
	h.Use(auth...)
	{
		h.POST("/registry", r.InitializeRegistry)
		h.GET("/registry", r.GetRegistry)
		h.POST("/curators", r.AddCurator)
		h.DELETE("/curators/:identity", r.RemoveCurator)

		h.POST("/questions", r.SubmitQuestion)
		h.GET("/questions", r.ListApprovedQuestions)
		h.GET("/questions/:id", r.GetQuestion)
		h.POST("/questions/:id/votes", r.Vote)
		h.POST("/questions/:id/finalize", r.Finalize)

		h.GET("/reputation/:identity", r.GetReputation)
		h.POST("/reputation", r.InitializeReputation)
	}
}

type registryResponse struct {
	Authority       string   `json:"authority"`
	TotalQuestions  uint64   `json:"total_questions"`
	ActiveQuestions uint64   `json:"active_questions"`
	Curators        []string `json:"curators"`
}

func newRegistryResponse(reg model.Registry) registryResponse {
	curators := make([]string, 0, len(reg.Curators))
	for _, c := range reg.Curators {
		curators = append(curators, c.String())
	}
	return registryResponse{
		Authority:       reg.Authority.String(),
		TotalQuestions:  reg.TotalQuestions,
		ActiveQuestions: reg.ActiveQuestions,
		Curators:        curators,
	}
}

type questionResponse struct {
	ID            uint64    `json:"id"`
	Submitter     string    `json:"submitter"`
	Text          string    `json:"text"`
	Options       [4]string `json:"options"`
	CorrectAnswer *uint8    `json:"correct_answer,omitempty"`
	Category      string    `json:"category"`
	CategorySlug  string    `json:"category_slug"`
	Difficulty    uint8     `json:"difficulty"`
	VotesApprove  uint32    `json:"votes_approve"`
	VotesReject   uint32    `json:"votes_reject"`
	Status        string    `json:"status"`
	CreatedAt     int64     `json:"created_at"`
}

// newQuestionResponse hides the answer from everyone but the submitter.
func newQuestionResponse(q model.Question, viewer model.Identity) questionResponse {
	resp := questionResponse{
		ID:           q.ID,
		Submitter:    q.Submitter.String(),
		Text:         q.Text,
		Options:      q.Options,
		Category:     q.Category,
		CategorySlug: q.CategorySlug,
		Difficulty:   q.Difficulty,
		VotesApprove: q.VotesApprove,
		VotesReject:  q.VotesReject,
		Status:       string(q.Status),
		CreatedAt:    q.CreatedAt,
	}
	if viewer == q.Submitter {
		answer := q.CorrectAnswer
		resp.CorrectAnswer = &answer
	}
	return resp
}

type reputationResponse struct {
	User               string `json:"user"`
	QuestionsSubmitted uint64 `json:"questions_submitted"`
	QuestionsApproved  uint64 `json:"questions_approved"`
	CurationVotes      uint64 `json:"curation_votes"`
	ReputationScore    uint64 `json:"reputation_score"`
}

func newReputationResponse(rep model.UserReputation) reputationResponse {
	return reputationResponse{
		User:               rep.User.String(),
		QuestionsSubmitted: rep.QuestionsSubmitted,
		QuestionsApproved:  rep.QuestionsApproved,
		CurationVotes:      rep.CurationVotes,
		ReputationScore:    rep.ReputationScore,
	}
}

func (r *curationRoutes) InitializeRegistry(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	reg, err := r.cs.InitializeRegistry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRegistryResponse(reg))
}

func (r *curationRoutes) GetRegistry(c *gin.Context) {
	reg, err := r.cs.GetRegistry(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRegistryResponse(reg))
}

type curatorRequest struct {
	Curator string `json:"curator" binding:"required"`
}

func (r *curationRoutes) AddCurator(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req curatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reg, err := r.cs.AddCurator(c.Request.Context(), id, model.Identity(req.Curator))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRegistryResponse(reg))
}

func (r *curationRoutes) RemoveCurator(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	reg, err := r.cs.RemoveCurator(c.Request.Context(), id, model.Identity(c.Param("identity")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRegistryResponse(reg))
}

type submitQuestionRequest struct {
	Text          string    `json:"text" binding:"required"`
	Options       [4]string `json:"options"`
	CorrectAnswer uint8     `json:"correct_answer"`
	Category      string    `json:"category"`
	Difficulty    uint8     `json:"difficulty"`
}

func (r *curationRoutes) SubmitQuestion(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req submitQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	q, err := r.cs.SubmitQuestion(c.Request.Context(), id, model.QuestionData{
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newQuestionResponse(q, id))
}

func (r *curationRoutes) ListApprovedQuestions(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	filter := model.QuestionFilter{Category: c.Query("category")}
	if v := c.Query("difficulty"); v != "" {
		d, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid difficulty"})
			return
		}
		filter.Difficulty = uint8(d)
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	questions, err := r.cs.ListApprovedQuestions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, newQuestionResponse(q, id))
	}

	c.JSON(http.StatusOK, resp)
}

func (r *curationRoutes) GetQuestion(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	questionID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	q, err := r.cs.GetQuestion(c.Request.Context(), questionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newQuestionResponse(q, id))
}

type voteRequest struct {
	Vote string `json:"vote" binding:"required"`
}

func (r *curationRoutes) Vote(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	questionID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	q, err := r.cs.Vote(c.Request.Context(), questionID, id, model.VoteType(req.Vote))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newQuestionResponse(q, id))
}

func (r *curationRoutes) Finalize(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	questionID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	q, err := r.cs.Finalize(c.Request.Context(), questionID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newQuestionResponse(q, id))
}

func (r *curationRoutes) GetReputation(c *gin.Context) {
	rep, err := r.cs.GetReputation(c.Request.Context(), model.Identity(c.Param("identity")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newReputationResponse(rep))
}

func (r *curationRoutes) InitializeReputation(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	rep, err := r.cs.InitializeReputation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newReputationResponse(rep))
}
