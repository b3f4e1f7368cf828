package rewards

import (
	"context"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
)

// BasicVerifier checks the structural validity of achievement data. It does
// not contact any external achievement service.
type BasicVerifier struct{}

// Verify reports whether data is a well-formed achievement record owned by
// caller.
func (BasicVerifier) Verify(_ context.Context, caller model.Identity, data model.AchievementData) (bool, error) {
	if data.ProfileOwner != caller {
		return false, model.ErrInvalidAchievementProfile
	}
	if len(data.Achievements) > model.MaxVerifiedAchievements {
		return false, model.ErrTooManyAchievements
	}
	for _, a := range data.Achievements {
		if a.Timestamp <= 0 {
			return false, model.ErrInvalidAchievementData
		}
	}
	return true, nil
}
