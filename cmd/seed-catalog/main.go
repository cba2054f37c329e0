package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/simsmaster/sims-backend/internal/config"
	"github.com/simsmaster/sims-backend/internal/database"
	"github.com/simsmaster/sims-backend/internal/logger"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository"
	"github.com/simsmaster/sims-backend/internal/service"
)

const seedPassword = "password123"

func main() {
	var students, seats int
	flag.IntVar(&students, "students", 50, "Number of student accounts to create")
	flag.IntVar(&seats, "seats", 20, "Seats per seeded class")
	flag.Parse()

	cfg := config.Load()
	log := logger.Component(logger.Setup(cfg.LogLevel, cfg.LogFormat), "seed_catalog")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	authService := service.NewAuthService(cfg, userRepo)

	hash, err := authService.HashPassword(seedPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	fmt.Println("=== Seeding demo catalog ===")

	instructor := &model.User{
		Name:         "Demo Instructor",
		Email:        "instructor@sims.local",
		PasswordHash: hash,
		Role:         model.RoleInstructor,
	}
	if err := userRepo.Create(ctx, instructor); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			log.Fatal().Err(err).Msg("Failed to create instructor")
		}
		fmt.Println("Instructor already exists, reusing it")
	}

	existing, err := classRepo.ListByInstructor(ctx, instructor.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list instructor classes")
	}
	if len(existing) > 0 {
		fmt.Printf("Found %d existing classes, skipping class seed\n", len(existing))
	} else {
		titles := []string{"Go Fundamentals", "Concurrency in Practice", "PostgreSQL for Developers", "Redis Patterns"}
		for i, title := range titles {
			class := &model.Class{
				ClassName:       title,
				InstructorName:  instructor.Name,
				InstructorEmail: instructor.Email,
				AvailableSeats:  seats,
				Price:           float64(20 + 10*i),
				Status:          model.ClassStatusApproved,
			}
			if err := classRepo.Create(ctx, class); err != nil {
				log.Fatal().Err(err).Str("class", title).Msg("Failed to create class")
			}
			fmt.Printf("Created class %q with ID: %s\n", class.ClassName, class.ID)
		}
	}

	successCount := 0
	for i := 0; i < students; i++ {
		student := &model.User{
			Name:         fmt.Sprintf("Student %02d", i+1),
			Email:        fmt.Sprintf("student%02d@sims.local", i+1),
			PasswordHash: hash,
			Role:         model.RoleStudent,
		}
		if err := userRepo.Create(ctx, student); err != nil {
			if !errors.Is(err, repository.ErrDuplicate) {
				fmt.Printf("Error creating %s: %v\n", student.Email, err)
			}
			continue
		}
		successCount++
		if successCount%10 == 0 {
			fmt.Printf("Created %d students...\n", successCount)
		}
	}

	fmt.Printf("\nSeed completed! Added %d/%d students (password %q).\n", successCount, students, seedPassword)
}
