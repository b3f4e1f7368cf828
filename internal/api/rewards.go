package api

import (
	"net/http"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/internal/service"

	"github.com/gin-gonic/gin"
)

type rewardRoutes struct {
	rs service.RewardServiceI
}

func NewRewardRoutes(handler *gin.RouterGroup, rs service.RewardServiceI, auth ...gin.HandlerFunc) {
	r := &rewardRoutes{rs: rs}

	h := handler.Group("/rewards/pools")
	h.Use(auth...)
	{
		h.POST("", r.CreatePool)
		h.GET("/:id", r.GetPool)
		h.POST("/:id/fund", r.FundPool)
		h.PATCH("/:id/criteria", r.UpdateCriteria)
		h.POST("/:id/eligibility", r.CalculateRewards)
		h.POST("/:id/claim", r.Claim)
		h.GET("/:id/claims/:identity", r.GetClaimableAmount)
		h.POST("/:id/close", r.ClosePool)
		h.POST("/:id/achievements/verify", r.VerifyAchievements)
	}
}

type poolResponse struct {
	ID                   uint64  `json:"id"`
	Authority            string  `json:"authority"`
	Name                 string  `json:"name"`
	TotalRewards         Amount  `json:"total_rewards"`
	DistributedRewards   Amount  `json:"distributed_rewards"`
	RewardType           string  `json:"reward_type"`
	TokenIdentity        *string `json:"token_identity,omitempty"`
	DistributionCriteria string  `json:"distribution_criteria"`
	ExpectedParticipants uint64  `json:"expected_participants"`
	StartTime            int64   `json:"start_time"`
	EndTime              int64   `json:"end_time"`
	Active               bool    `json:"active"`
	Vault                string  `json:"vault,omitempty"`
	VaultBalance         Amount  `json:"vault_balance,omitempty"`
	Refunded             Amount  `json:"refunded,omitempty"`
}

func newPoolResponse(p model.RewardPool) poolResponse {
	return poolResponse{
		ID:                   p.ID,
		Authority:            p.Authority.String(),
		Name:                 p.Name,
		TotalRewards:         formatAmount(p.TotalRewards),
		DistributedRewards:   formatAmount(p.DistributedRewards),
		RewardType:           string(p.RewardType),
		TokenIdentity:        p.TokenIdentity,
		DistributionCriteria: string(p.DistributionCriteria),
		ExpectedParticipants: p.ExpectedParticipants,
		StartTime:            p.StartTime,
		EndTime:              p.EndTime,
		Active:               p.Active,
	}
}

func newSummaryResponse(s service.PoolSummary) poolResponse {
	resp := newPoolResponse(s.Pool)
	resp.Vault = s.Vault.Address
	if s.Asset != "" {
		resp.VaultBalance = formatAmount(s.VaultBalance)
	}
	if s.Refunded > 0 {
		resp.Refunded = formatAmount(s.Refunded)
	}
	return resp
}

type claimResponse struct {
	PoolID        uint64 `json:"pool_id"`
	User          string `json:"user"`
	AmountClaimed Amount `json:"amount_claimed"`
	TotalEligible Amount `json:"total_eligible"`
	Claimable     Amount `json:"claimable"`
	LastClaimTime int64  `json:"last_claim_time"`
	Calculated    Amount `json:"calculated,omitempty"`
	Paid          Amount `json:"paid,omitempty"`
}

func newClaimResponse(e service.Eligibility) claimResponse {
	resp := claimResponse{
		PoolID:        e.Claim.PoolID,
		User:          e.Claim.User.String(),
		AmountClaimed: formatAmount(e.Claim.AmountClaimed),
		TotalEligible: formatAmount(e.Claim.TotalEligible),
		Claimable:     formatAmount(e.Claim.Claimable()),
		LastClaimTime: e.Claim.LastClaimTime,
		Calculated:    formatAmount(e.Calculated),
	}
	if e.Paid > 0 {
		resp.Paid = formatAmount(e.Paid)
	}
	return resp
}

type createPoolRequest struct {
	ID                   uint64  `json:"id"`
	Name                 string  `json:"name" binding:"required"`
	TotalRewards         Amount  `json:"total_rewards" binding:"required"`
	RewardType           string  `json:"reward_type" binding:"required"`
	TokenIdentity        *string `json:"token_identity"`
	DistributionCriteria string  `json:"distribution_criteria" binding:"required"`
	ExpectedParticipants uint64  `json:"expected_participants"`
	StartTime            int64   `json:"start_time" binding:"required"`
	EndTime              int64   `json:"end_time" binding:"required"`
	InitialFunding       Amount  `json:"initial_funding"`
}

func (r *rewardRoutes) CreatePool(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req createPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	total, err := req.TotalRewards.Uint64()
	if err != nil {
		badRequest(c, err)
		return
	}
	funding, err := req.InitialFunding.Uint64()
	if err != nil {
		badRequest(c, err)
		return
	}

	summary, err := r.rs.CreatePool(c.Request.Context(), id, model.PoolData{
		ID:                   req.ID,
		Name:                 req.Name,
		TotalRewards:         total,
		RewardType:           model.RewardType(req.RewardType),
		TokenIdentity:        req.TokenIdentity,
		DistributionCriteria: model.DistributionCriteria(req.DistributionCriteria),
		ExpectedParticipants: req.ExpectedParticipants,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
	}, funding)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSummaryResponse(summary))
}

func (r *rewardRoutes) GetPool(c *gin.Context) {
	poolID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	summary, err := r.rs.GetPool(c.Request.Context(), poolID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSummaryResponse(summary))
}

type fundRequest struct {
	Amount Amount `json:"amount" binding:"required"`
}

func (r *rewardRoutes) FundPool(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	poolID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := req.Amount.Uint64()
	if err != nil {
		badRequest(c, err)
		return
	}

	summary, err := r.rs.FundPool(c.Request.Context(), poolID, id, amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSummaryResponse(summary))
}

type criteriaRequest struct {
	DistributionCriteria string `json:"distribution_criteria" binding:"required"`
	ExpectedParticipants uint64 `json:"expected_participants"`
}

func (r *rewardRoutes) UpdateCriteria(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	poolID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req criteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pool, err := r.rs.UpdateDistributionCriteria(c.Request.Context(), poolID, id,
		model.DistributionCriteria(req.DistributionCriteria), req.ExpectedParticipants)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPoolResponse(pool))
}

type performanceRequest struct {
	Score                uint32  `json:"score"`
	CompletionTime       int64   `json:"completion_time"`
	StakingDuration      int64   `json:"staking_duration"`
	AchievementsUnlocked uint32  `json:"achievements_unlocked"`
	RandomSeed           uint64  `json:"random_seed"`
	AchievementProfile   *string `json:"achievement_profile"`
}

func (r *rewardRoutes) CalculateRewards(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	poolID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req performanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	data := model.PerformanceData{
		Score:                req.Score,
		CompletionTime:       req.CompletionTime,
		StakingDuration:      req.StakingDuration,
		AchievementsUnlocked: req.AchievementsUnlocked,
		RandomSeed:           req.RandomSeed,
	}
	if req.AchievementProfile != nil {
		profile := model.Identity(*req.AchievementProfile)
		data.AchievementProfile = &profile
	}

	eligibility, err := r.rs.CalculateRewards(c.Request.Context(), poolID, id, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newClaimResponse(eligibility))
}

func (r *rewardRoutes) Claim(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	poolID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	eligibility, err := r.rs.Claim(c.Request.Context(), poolID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newClaimResponse(eligibility))
}

func (r *rewardRoutes) GetClaimableAmount(c *gin.Context) {
	poolID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	amount, err := r.rs.GetClaimableAmount(c.Request.Context(), poolID, model.Identity(c.Param("identity")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claimable": formatAmount(amount)})
}

func (r *rewardRoutes) ClosePool(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	poolID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	summary, err := r.rs.ClosePool(c.Request.Context(), poolID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSummaryResponse(summary))
}

type achievementRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      uint32 `json:"points"`
	Timestamp   int64  `json:"timestamp"`
	Verified    bool   `json:"verified"`
}

type verifyAchievementsRequest struct {
	ProfileOwner   string               `json:"profile_owner" binding:"required"`
	Achievements   []achievementRequest `json:"achievements"`
	TotalScore     uint64               `json:"total_score"`
	CompletionRate uint32               `json:"completion_rate"`
}

func (r *rewardRoutes) VerifyAchievements(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	poolID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req verifyAchievementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	data := model.AchievementData{
		ProfileOwner:   model.Identity(req.ProfileOwner),
		TotalScore:     req.TotalScore,
		CompletionRate: req.CompletionRate,
	}
	for _, a := range req.Achievements {
		data.Achievements = append(data.Achievements, model.Achievement(a))
	}

	verified, err := r.rs.VerifyAchievements(c.Request.Context(), poolID, id, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": verified})
}
