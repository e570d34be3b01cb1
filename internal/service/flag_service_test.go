package service

import (
	"context"
	"testing"

	"oncomove/pathway-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newFlagService(repo *fakeFlagRepo) FlagService {
	return NewFlagService(repo)
}

func TestCheckAndCreateFlags_LowEnergy(t *testing.T) {
	ctx := context.Background()
	repo := &fakeFlagRepo{}
	svc := newFlagService(repo)

	t.Run("energy at threshold raises an amber flag", func(t *testing.T) {
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-1", 2, 0, ""))

		require.Len(t, repo.flags, 1)
		assert.Equal(t, domain.FlagLowEnergyStreak, repo.flags[0].FlagType)
		assert.Equal(t, domain.SeverityAmber, repo.flags[0].Severity)
	})

	t.Run("repeat low energy deduplicates against the open flag", func(t *testing.T) {
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-1", 1, 0, ""))
		assert.Len(t, repo.flags, 1)
	})

	t.Run("a new flag is raised once the old one is resolved", func(t *testing.T) {
		require.NoError(t, repo.Resolve(ctx, repo.flags[0].ID, "coach-1", "spoke with patient"))
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-1", 2, 0, ""))
		assert.Len(t, repo.flags, 2)
	})

	t.Run("normal energy raises nothing", func(t *testing.T) {
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-2", 3, 0, ""))
		for _, f := range repo.flags {
			assert.NotEqual(t, "user-2", f.UserID)
		}
	})
}

func TestCheckAndCreateFlags_HighPain(t *testing.T) {
	ctx := context.Background()
	repo := &fakeFlagRepo{}
	svc := newFlagService(repo)

	t.Run("pain at threshold raises a red flag", func(t *testing.T) {
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-1", 4, 4, "left shoulder"))

		require.Len(t, repo.flags, 1)
		assert.Equal(t, domain.FlagHighPain, repo.flags[0].FlagType)
		assert.Equal(t, domain.SeverityRed, repo.flags[0].Severity)
		assert.Contains(t, repo.flags[0].Description, "4/5")
		assert.Contains(t, repo.flags[0].Description, "left shoulder")
	})

	t.Run("high pain never deduplicates", func(t *testing.T) {
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-1", 4, 5, ""))
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-1", 4, 4, ""))
		assert.Len(t, repo.flags, 3, "every high-pain incident gets its own flag")
	})

	t.Run("pain below threshold raises nothing", func(t *testing.T) {
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-3", 4, 3, ""))
		for _, f := range repo.flags {
			assert.NotEqual(t, "user-3", f.UserID)
		}
	})

	t.Run("unreported energy does not block the pain check", func(t *testing.T) {
		require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-4", 0, 5, ""))
		flags, err := repo.GetUnresolvedByUser(ctx, "user-4")
		require.NoError(t, err)
		assert.Len(t, flags, 1)
	})
}

func TestCheckAndCreateFlags_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newFlagService(&fakeFlagRepo{})

	assert.ErrorIs(t, svc.CheckAndCreateFlags(ctx, "", 3, 0, ""), ErrInvalidInput)
	assert.ErrorIs(t, svc.CheckAndCreateFlags(ctx, "user-1", 6, 0, ""), ErrInvalidInput)
	assert.ErrorIs(t, svc.CheckAndCreateFlags(ctx, "user-1", 3, 7, ""), ErrInvalidInput)
}

func TestCheckHighRPEFlag(t *testing.T) {
	ctx := context.Background()
	repo := &fakeFlagRepo{}
	svc := newFlagService(repo)

	t.Run("below threshold raises nothing", func(t *testing.T) {
		require.NoError(t, svc.CheckHighRPEFlag(ctx, "user-1", 7, "BC_S1_STRENGTH_A"))
		assert.Empty(t, repo.flags)
	})

	t.Run("threshold raises amber", func(t *testing.T) {
		require.NoError(t, svc.CheckHighRPEFlag(ctx, "user-1", 8, "BC_S1_STRENGTH_A"))
		require.Len(t, repo.flags, 1)
		assert.Equal(t, domain.SeverityAmber, repo.flags[0].Severity)
	})

	t.Run("deduplicates while open", func(t *testing.T) {
		require.NoError(t, svc.CheckHighRPEFlag(ctx, "user-1", 10, "BC_S1_STRENGTH_B"))
		assert.Len(t, repo.flags, 1)
	})

	t.Run("severe exertion is red", func(t *testing.T) {
		require.NoError(t, svc.CheckHighRPEFlag(ctx, "user-2", 9, "BC_S2_STRENGTH_A"))
		require.Len(t, repo.flags, 2)
		assert.Equal(t, domain.SeverityRed, repo.flags[1].Severity)
	})

	t.Run("rejects out-of-range RPE", func(t *testing.T) {
		assert.ErrorIs(t, svc.CheckHighRPEFlag(ctx, "user-1", 11, ""), ErrInvalidInput)
	})
}

func TestCheckPainQualityFlag(t *testing.T) {
	ctx := context.Background()
	repo := &fakeFlagRepo{}
	svc := newFlagService(repo)

	t.Run("sharp pain raises a red review flag", func(t *testing.T) {
		require.NoError(t, svc.CheckPainQualityFlag(ctx, "user-1", "sharp", 3, "chest wall"))

		require.Len(t, repo.flags, 1)
		assert.Equal(t, domain.FlagPainQualityAlert, repo.flags[0].FlagType)
		assert.Equal(t, domain.SeverityRed, repo.flags[0].Severity)
		assert.Contains(t, repo.flags[0].Title, "Sharp")
	})

	t.Run("dull or aching pain raises nothing", func(t *testing.T) {
		require.NoError(t, svc.CheckPainQualityFlag(ctx, "user-2", "dull", 3, ""))
		require.NoError(t, svc.CheckPainQualityFlag(ctx, "user-2", "aching", 3, ""))
		assert.Len(t, repo.flags, 1)
	})

	t.Run("deduplicates while open", func(t *testing.T) {
		require.NoError(t, svc.CheckPainQualityFlag(ctx, "user-1", "worrying", 2, ""))
		assert.Len(t, repo.flags, 1)
	})
}

func TestResolveFlag(t *testing.T) {
	ctx := context.Background()
	repo := &fakeFlagRepo{}
	svc := newFlagService(repo)

	require.NoError(t, svc.CheckAndCreateFlags(ctx, "user-1", 1, 0, ""))
	require.Len(t, repo.flags, 1)

	require.NoError(t, svc.ResolveFlag(ctx, repo.flags[0].ID, "coach-1", "checked in by phone"))
	assert.True(t, repo.flags[0].IsResolved)
	assert.Equal(t, "coach-1", repo.flags[0].ResolvedBy)
	assert.Equal(t, "checked in by phone", repo.flags[0].ResolutionNotes)

	t.Run("resolving an unknown flag", func(t *testing.T) {
		err := svc.ResolveFlag(ctx, primitive.NewObjectID(), "coach-1", "")
		assert.ErrorIs(t, err, ErrFlagNotFound)
	})

	t.Run("unresolved listings exclude resolved flags", func(t *testing.T) {
		flags, err := svc.GetUnresolvedFlags(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, flags)

		all, err := svc.GetAllUnresolvedFlags(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
