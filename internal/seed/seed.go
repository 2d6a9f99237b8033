package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	appModels "github.com/qpaperai/qpaper-api/internal/app/models"
	appRepos "github.com/qpaperai/qpaper-api/internal/app/repositories"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
)

// defaultCourses is the starter catalog created on first boot so a fresh
// deployment has something to search against. Units follow the usual
// five-unit syllabus layout.
var defaultCourses = []struct {
	Code     string
	Name     string
	Credits  int
	Type     appModels.CourseType
	Semester int
	Units    []string
}{
	{
		Code: "CS301", Name: "Database Management Systems", Credits: 4,
		Type: appModels.CourseTypeCore, Semester: 5,
		Units: []string{
			"Introduction to DBMS and ER Modeling",
			"Relational Model and Algebra",
			"SQL and Query Processing",
			"Normalization and Database Design",
			"Transactions and Concurrency Control",
		},
	},
	{
		Code: "CS302", Name: "Operating Systems", Credits: 4,
		Type: appModels.CourseTypeCore, Semester: 5,
		Units: []string{
			"Processes and Threads",
			"CPU Scheduling",
			"Synchronization and Deadlocks",
			"Memory Management",
			"File Systems and I/O",
		},
	},
	{
		Code: "CS405", Name: "Machine Learning", Credits: 3,
		Type: appModels.CourseTypeElective, Semester: 7,
		Units: []string{
			"Introduction and Linear Models",
			"Decision Trees and Ensembles",
			"Neural Networks",
			"Unsupervised Learning",
			"Model Evaluation and Selection",
		},
	},
}

// CreateDefaultData creates the default admin account and starter course
// catalog if they don't exist. Safe to run on every boot.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)
	courseRepo := appRepos.NewCourseRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data (admin user, course catalog)...")
	var finalErr error // To collect potential errors without stopping the process

	// --- Default admin user --- //
	exists, err := userRepo.UsernameExists(ctx, "admin")
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		finalErr = errors.Join(finalErr, err)
	} else if !exists {
		lgr.Info().Msg("Creating default admin user...")

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
		if err != nil {
			lgr.Error().Err(err).Msg("Error hashing admin password")
			finalErr = errors.Join(finalErr, err)
		} else {
			admin := &appModels.User{
				Username: "admin",
				Email:    "admin@qpaper.ai",
				Password: string(hashedPassword),
				FullName: "System Administrator",
				RoleType: appModels.RoleAdmin,
				IsActive: true,
			}

			adminID, err := userRepo.Create(ctx, admin)
			if err != nil && !errors.Is(err, apperrors.ErrUsernameAlreadyExists) {
				lgr.Error().Err(err).Msg("Error creating admin user")
				finalErr = errors.Join(finalErr, err)
			} else if err == nil {
				lgr.Info().Int64("adminID", adminID).Msg("Default admin user created, change the password immediately")
			}
		}
	} else {
		lgr.Info().Msg("Admin user already exists, skipping creation")
	}

	// --- Starter course catalog --- //
	for _, c := range defaultCourses {
		course := &appModels.Course{
			Code:       c.Code,
			Name:       c.Name,
			Credits:    c.Credits,
			CourseType: c.Type,
			Semester:   c.Semester,
			IsActive:   true,
		}

		courseID, err := courseRepo.Create(ctx, course)
		if errors.Is(err, apperrors.ErrCourseAlreadyExists) {
			continue
		}
		if err != nil {
			lgr.Error().Err(err).Str("code", c.Code).Msg("Error creating default course")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		for i, title := range c.Units {
			unit := &appModels.Unit{
				CourseID:   courseID,
				UnitNumber: i + 1,
				Title:      title,
			}
			if _, err := courseRepo.CreateUnit(ctx, unit); err != nil {
				lgr.Error().Err(err).Str("code", c.Code).Int("unit", i+1).Msg("Error creating default unit")
				finalErr = errors.Join(finalErr, err)
			}
		}
		lgr.Info().Str("code", c.Code).Int("units", len(c.Units)).Msg("Default course created")
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr // Return collected errors, if any
}
