package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medicare-backend/internal/config"
	"medicare-backend/internal/platform/db"
	"medicare-backend/internal/platform/logger"
	"medicare-backend/internal/user"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medicare-server",
		Short: "MediCare+ hospital backend with symptom triage",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.Env, cfg.LogLevel)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Model calls can take most of AI_TIMEOUT.
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(conn *sql.DB) error {
				if err := db.MigrateUp(conn); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Println("Migrations applied successfully.")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return withDatabase(cmd.Context(), func(conn *sql.DB) error {
				if err := db.MigrateDown(conn, steps); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Printf("Rolled back %d migration(s).\n", steps)
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func seedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create a dashboard admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p := user.Profile{}
			p.Email, _ = flags.GetString("email")
			p.Password, _ = flags.GetString("password")
			p.FirstName, _ = flags.GetString("first-name")
			p.LastName, _ = flags.GetString("last-name")
			p.Phone, _ = flags.GetString("phone")
			p.DOB, _ = flags.GetString("dob")
			p.Gender, _ = flags.GetString("gender")
			p.NIC, _ = flags.GetString("nic")

			return withDatabase(cmd.Context(), func(conn *sql.DB) error {
				if err := db.MigrateUp(conn); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				svc := user.NewService(user.NewPostgresRepository(conn))
				admin, err := svc.AddAdmin(cmd.Context(), p)
				if errors.Is(err, user.ErrEmailTaken) {
					fmt.Printf("Admin already exists with email %s\n", p.Email)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Printf("Admin %s created (id %s)\n", admin.Email, admin.ID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.String("email", "admin@hospital.com", "Admin email")
	f.String("password", "", "Admin password")
	f.String("first-name", "Admin", "First name")
	f.String("last-name", "User", "Last name")
	f.String("phone", "0300000000", "Phone number")
	f.String("dob", "1990-01-01", "Date of birth")
	f.String("gender", "Male", "Gender")
	f.String("nic", "0000000000", "National identity number")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
