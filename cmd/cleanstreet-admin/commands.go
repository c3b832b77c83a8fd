package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"clean-street/internal/config"
	"clean-street/internal/database"
	"clean-street/internal/logger"
	"clean-street/internal/models"
	"clean-street/internal/services"
	"clean-street/internal/store"
	"clean-street/internal/upload"
	"clean-street/pkg/auth"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const adminPasswordEnv = "CLEANSTREET_ADMIN_PASSWORD"

type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	db    *database.MongoDB
	users *store.MongoUserStore
	logs  *store.MongoAdminLogStore
}

func (a *app) connect(cmd *cobra.Command, _ []string) error {
	a.cfg = config.Load()
	a.log = logger.New(a.cfg)

	db, err := database.NewMongoDB(a.cfg, a.log)
	if err != nil {
		return err
	}
	a.db = db
	a.users = store.NewMongoUserStore(db, a.cfg.QueryTimeout())
	a.logs = store.NewMongoAdminLogStore(db, a.cfg.QueryTimeout())
	return nil
}

func (a *app) close(*cobra.Command, []string) error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:                "cleanstreet-admin",
		Short:              "Operator tasks for the Clean Street database.",
		SilenceUsage:       true,
		PersistentPreRunE:  a.connect,
		PersistentPostRunE: a.close,
	}

	root.AddCommand(
		newIndexesCmd(a),
		newCreateAdminCmd(a),
		newSetRoleCmd(a),
		newMigrateRolesCmd(a),
	)
	return root
}

func newIndexesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the indexes every collection relies on.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			if err := a.db.CreateIndexes(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Indexes created")
			return nil
		},
	}
}

func newCreateAdminCmd(a *app) *cobra.Command {
	var name, email, password, location string

	cmd := &cobra.Command{
		Use:     "create-admin",
		Short:   "Create an admin account.",
		Long:    "Create an admin account. The password is read from --password or " + adminPasswordEnv + ".",
		Example: "cleanstreet-admin create-admin --name Ops --email ops@example.com",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(adminPasswordEnv)
			}

			user, err := createAdmin(cmd.Context(), a.users, a.cfg, a.log, services.RegisterInput{
				Name:     name,
				Email:    email,
				Password: password,
				Location: location,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&location, "location", "", "city or area")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSetRoleCmd(a *app) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:     "set-role [email] [role]",
		Short:   "Change the role of an existing account.",
		Long:    "Change the role of an existing account. The change is written to the admin log, attributed to --by when given.",
		Example: "cleanstreet-admin set-role alice@example.com volunteer --by ops@example.com",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := setRole(cmd.Context(), a.users, a.logs, by, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "email of the admin the change is attributed to")
	return cmd
}

func newMigrateRolesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-roles",
		Short: "Normalize missing or legacy roles to the current set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.users.BackfillRoles(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d users\n", n)
			return nil
		},
	}
}

// createAdmin goes through the regular registration path so admins get the
// same email normalization and password rules as everyone else.
func createAdmin(ctx context.Context, users store.UserStore, cfg *config.Config, log *logrus.Logger, in services.RegisterInput) (*models.User, error) {
	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAdminSecret, cfg.TokenTTL())
	svc := services.NewAuthService(users, jwt, upload.Disabled{}, log, services.AuthOptions{
		BcryptCost:       cfg.BcryptCost,
		AllowAdminSignup: true,
	})

	in.Role = string(models.RoleAdmin)
	result, err := svc.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return result.User, nil
}

// setRole changes a role and records it in the admin log. Without an
// acting admin the entry carries a zero user id, marking an operator change.
func setRole(ctx context.Context, users store.UserStore, logs store.AdminLogStore, by, email, role string) (*models.User, error) {
	r, ok := models.RoleFromString(strings.ToLower(strings.TrimSpace(role)))
	if !ok {
		return nil, fmt.Errorf("unknown role %q, expected one of %v", role, models.AllRoles())
	}

	actor := primitive.NilObjectID
	if by != "" {
		admin, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(by)))
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", by, err)
		}
		if admin.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%s is not an admin", by)
		}
		actor = admin.ID
	}

	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", email, err)
	}
	oldRole := user.Role
	if err := users.UpdateRole(ctx, user.ID, r); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	user.Role = r

	if err := logs.Append(ctx, models.NewAdminLog(actor, models.RoleChangeAction(user.Name, oldRole, r))); err != nil {
		return user, fmt.Errorf("role updated but admin log failed: %w", err)
	}
	return user, nil
}
