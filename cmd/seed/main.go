// Command seed loads the session-template catalog into MongoDB. It is safe to
// re-run; templates are upserted by code and their exercise rows replaced.
package main

import (
	"context"
	"log"
	"time"

	"oncomove/pathway-app/internal/config"
	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/repository/mongo"
)

type seedTemplate struct {
	template  domain.SessionTemplate
	exercises []domain.TemplateExercise
}

func main() {
	log.Println("Seeding session-template catalog...")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()

	appDB := dbClient.Database(cfg.Database.Name)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, entry := range catalog() {
		if err := templateRepo.Upsert(ctx, &entry.template, entry.exercises); err != nil {
			log.Fatalf("FATAL: Failed to seed template %s: %v", entry.template.TemplateCode, err)
		}
		log.Printf("Seeded %s (%d exercises)", entry.template.TemplateCode, len(entry.exercises))
	}

	log.Println("Seeding complete.")
}

func catalog() []seedTemplate {
	pathway := "breast_cancer"

	return []seedTemplate{
		// --- Stage 0: Early Recovery (Days 0-6) ---
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S0_WALK",
				PathwayID:          pathway,
				PathwayStage:       0,
				SessionType:        domain.SessionWalk,
				Name:               "Gentle Indoor Walk",
				DisplayTitle:       "Gentle Walk",
				DisplayDescription: "A short, easy walk at home or around the block. Stop whenever you need to.",
				EstimatedMinutes:   5,
				EasierTitle:        "Walk Around the Room",
				EasierDescription:  "A few laps of the room, with rests in between.",
				MinMinutes:         2,
				IsActive:           true,
				SortOrder:          1,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Easy-paced walking", Cue: "Relax your shoulders and breathe normally", SortOrder: 1},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S0_GENTLE",
				PathwayID:          pathway,
				PathwayStage:       0,
				SessionType:        domain.SessionMobility,
				Name:               "Gentle Movement",
				DisplayTitle:       "Gentle Movement & Breathing",
				DisplayDescription: "Calm breathing and light shoulder movement within a comfortable range.",
				EstimatedMinutes:   8,
				EasierTitle:        "Breathing Only",
				EasierDescription:  "Just the breathing exercises, seated or lying down.",
				MinMinutes:         4,
				IsActive:           true,
				SortOrder:          2,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Diaphragmatic breathing", Cue: "Breathe low into your belly", Sets: 1, Reps: "5 breaths", SortOrder: 1},
				{Name: "Shoulder rolls", Cue: "Small, slow circles", Sets: 1, Reps: "5 each way", SortOrder: 2},
				{Name: "Hand squeezes", Cue: "Gently squeeze and release a soft ball or towel", Sets: 1, Reps: "10", SortOrder: 3},
			},
		},

		// --- Stage 1: Foundations (Days 7-28) ---
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S1_WALK",
				PathwayID:          pathway,
				PathwayStage:       1,
				SessionType:        domain.SessionWalk,
				Name:               "Foundation Walk",
				DisplayTitle:       "Steady Walk",
				DisplayDescription: "A comfortable-paced walk. You should be able to hold a conversation throughout.",
				EstimatedMinutes:   15,
				EasierTitle:        "Shorter Walk",
				EasierDescription:  "Same pace, shorter route. Any walking counts.",
				MinMinutes:         8,
				IsActive:           true,
				SortOrder:          1,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Conversational-pace walking", Cue: "If you can't talk, slow down", SortOrder: 1},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S1_MOBILITY",
				PathwayID:          pathway,
				PathwayStage:       1,
				SessionType:        domain.SessionMobility,
				Name:               "Shoulder Mobility",
				DisplayTitle:       "Shoulder Mobility Mini",
				DisplayDescription: "Restore shoulder range gradually. Move to gentle tension, never into pain.",
				EstimatedMinutes:   10,
				EasierTitle:        "Seated Mobility",
				EasierDescription:  "The same movements done seated with a smaller range.",
				MinMinutes:         5,
				IsActive:           true,
				SortOrder:          2,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Wall slides", Cue: "Slide fingertips up the wall to gentle tension", Sets: 2, Reps: "8", SortOrder: 1},
				{Name: "Pendulum swings", Cue: "Let the arm hang and swing like a pendulum", Sets: 2, Reps: "10 each way", SortOrder: 2},
				{Name: "Chest opener stretch", Cue: "Hands behind head, elbows gently back", Sets: 2, HoldSecs: 15, SortOrder: 3},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S1_STRENGTH_A",
				PathwayID:          pathway,
				PathwayStage:       1,
				SessionType:        domain.SessionStrength,
				Name:               "Foundation Strength A",
				DisplayTitle:       "Strength: Legs & Posture",
				DisplayDescription: "Bodyweight basics to rebuild leg strength and upright posture.",
				EstimatedMinutes:   15,
				EasierTitle:        "Reduced Sets",
				EasierDescription:  "One set of each movement, with longer rests.",
				MinMinutes:         8,
				IsActive:           true,
				SortOrder:          3,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Sit-to-stand", Cue: "Use armrests as little as feels safe", Sets: 2, Reps: "8", SortOrder: 1},
				{Name: "Wall push-up", Cue: "Keep a straight line from head to heels", Sets: 2, Reps: "8", SortOrder: 2},
				{Name: "Heel raises", Cue: "Hold a counter for balance", Sets: 2, Reps: "10", SortOrder: 3},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S1_STRENGTH_B",
				PathwayID:          pathway,
				PathwayStage:       1,
				SessionType:        domain.SessionStrength,
				Name:               "Foundation Strength B",
				DisplayTitle:       "Strength: Back & Balance",
				DisplayDescription: "Gentle pulling movements and balance work.",
				EstimatedMinutes:   15,
				EasierTitle:        "Reduced Sets",
				EasierDescription:  "One set of each movement, with longer rests.",
				MinMinutes:         8,
				IsActive:           true,
				SortOrder:          4,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Band row", Cue: "Squeeze shoulder blades gently together", Sets: 2, Reps: "8", SortOrder: 1},
				{Name: "Standing march", Cue: "Lift knees slowly, hold a counter if needed", Sets: 2, Reps: "10 each leg", SortOrder: 2},
				{Name: "Single-leg stand", Cue: "Fingertips on a counter for support", Sets: 2, HoldSecs: 15, SortOrder: 3},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S1_STRENGTH_C",
				PathwayID:          pathway,
				PathwayStage:       1,
				SessionType:        domain.SessionStrength,
				Name:               "Foundation Strength C",
				DisplayTitle:       "Strength: Whole Body",
				DisplayDescription: "A light whole-body circuit combining the week's movements.",
				EstimatedMinutes:   15,
				EasierTitle:        "Reduced Sets",
				EasierDescription:  "One set of each movement, with longer rests.",
				MinMinutes:         8,
				IsActive:           true,
				SortOrder:          5,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Sit-to-stand", Cue: "Slow on the way down", Sets: 2, Reps: "6", SortOrder: 1},
				{Name: "Wall push-up", Cue: "Elbows at roughly 45 degrees", Sets: 2, Reps: "6", SortOrder: 2},
				{Name: "Band row", Cue: "Smooth pull, slow release", Sets: 2, Reps: "6", SortOrder: 3},
				{Name: "Heel raises", Cue: "Pause briefly at the top", Sets: 2, Reps: "8", SortOrder: 4},
			},
		},

		// --- Stage 2: Building Confidence (Day 29+) ---
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S2_WALK",
				PathwayID:          pathway,
				PathwayStage:       2,
				SessionType:        domain.SessionWalk,
				Name:               "Confidence Walk",
				DisplayTitle:       "Brisk Walk",
				DisplayDescription: "A purposeful walk with a few brisker stretches mixed in.",
				EstimatedMinutes:   25,
				EasierTitle:        "Steady Walk",
				EasierDescription:  "Drop the brisk stretches and keep an even, comfortable pace.",
				MinMinutes:         15,
				IsActive:           true,
				SortOrder:          1,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Brisk intervals", Cue: "2 minutes easy, 1 minute brisk, repeat", SortOrder: 1},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S2_MOBILITY",
				PathwayID:          pathway,
				PathwayStage:       2,
				SessionType:        domain.SessionMobility,
				Name:               "Full Mobility",
				DisplayTitle:       "Mobility & Stretch",
				DisplayDescription: "Fuller range shoulder and trunk mobility with longer holds.",
				EstimatedMinutes:   12,
				EasierTitle:        "Shorter Holds",
				EasierDescription:  "Same movements with half the hold time.",
				MinMinutes:         6,
				IsActive:           true,
				SortOrder:          2,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Overhead reach", Cue: "Reach both arms up and slightly back", Sets: 2, Reps: "8", SortOrder: 1},
				{Name: "Trunk rotations", Cue: "Arms crossed, rotate slowly side to side", Sets: 2, Reps: "8 each way", SortOrder: 2},
				{Name: "Doorway chest stretch", Cue: "Forearm on the frame, step gently through", Sets: 2, HoldSecs: 20, SortOrder: 3},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S2_STRENGTH_A",
				PathwayID:          pathway,
				PathwayStage:       2,
				SessionType:        domain.SessionStrength,
				Name:               "Confidence Strength A",
				DisplayTitle:       "Strength: Lower Body",
				DisplayDescription: "Progressed leg work with light resistance.",
				EstimatedMinutes:   20,
				EasierTitle:        "Bodyweight Only",
				EasierDescription:  "Drop the resistance and reduce to two sets.",
				MinMinutes:         12,
				IsActive:           true,
				SortOrder:          3,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Chair squat", Cue: "Tap the chair and stand back up", Sets: 3, Reps: "10", SortOrder: 1},
				{Name: "Step-ups", Cue: "Use the bottom stair, alternate legs", Sets: 3, Reps: "8 each leg", SortOrder: 2},
				{Name: "Glute bridge", Cue: "Squeeze at the top, lower slowly", Sets: 3, Reps: "10", SortOrder: 3},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S2_STRENGTH_B",
				PathwayID:          pathway,
				PathwayStage:       2,
				SessionType:        domain.SessionStrength,
				Name:               "Confidence Strength B",
				DisplayTitle:       "Strength: Upper Body",
				DisplayDescription: "Progressed pushing and pulling within a comfortable range.",
				EstimatedMinutes:   20,
				EasierTitle:        "Wall Variations",
				EasierDescription:  "Swap to wall push-ups and lighter band tension.",
				MinMinutes:         12,
				IsActive:           true,
				SortOrder:          4,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Incline push-up", Cue: "Hands on a counter or sturdy table", Sets: 3, Reps: "8", SortOrder: 1},
				{Name: "Band row", Cue: "Pull to the ribs, control the return", Sets: 3, Reps: "10", SortOrder: 2},
				{Name: "Band overhead press", Cue: "Press only as high as feels comfortable", Sets: 3, Reps: "8", SortOrder: 3},
			},
		},
		{
			template: domain.SessionTemplate{
				TemplateCode:       "BC_S2_STRENGTH_C",
				PathwayID:          pathway,
				PathwayStage:       2,
				SessionType:        domain.SessionStrength,
				Name:               "Confidence Strength C",
				DisplayTitle:       "Strength: Full Circuit",
				DisplayDescription: "A whole-body circuit: move steadily, rest between rounds.",
				EstimatedMinutes:   20,
				EasierTitle:        "Two Rounds",
				EasierDescription:  "Two rounds instead of three, with longer rests.",
				MinMinutes:         12,
				IsActive:           true,
				SortOrder:          5,
			},
			exercises: []domain.TemplateExercise{
				{Name: "Chair squat", Cue: "Steady tempo throughout", Sets: 3, Reps: "8", SortOrder: 1},
				{Name: "Incline push-up", Cue: "Keep hips in line", Sets: 3, Reps: "6", SortOrder: 2},
				{Name: "Standing march", Cue: "Tall posture, controlled knees", Sets: 3, Reps: "12 each leg", SortOrder: 3},
				{Name: "Glute bridge", Cue: "Exhale as you lift", Sets: 3, Reps: "8", SortOrder: 4},
			},
		},
	}
}
