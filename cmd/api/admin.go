package main

import (
	"fmt"

	"agritech/internal/config"
	"agritech/internal/infra/db"
	gormrepo "agritech/internal/infra/repository"
	auth "agritech/internal/usecase/auth_usecase"
	"agritech/internal/validator"

	"github.com/spf13/cobra"
)

func createAdminCmd() *cobra.Command {
	var in auth.RegisterUserInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an Admin account",
		Long: `Create an Admin account. Signup only ever creates Buyer or Seller
accounts, so this is the only way to obtain an Admin.

Example:
  agritech create-admin --email ops@example.com --password s3cret! \
    --username ops --phone 0781234567 --address Kigali`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := validator.NormalizePhone(in.PhoneNumber); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			gormDB, err := db.Connect(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			if sqlDB, err := gormDB.DB(); err == nil {
				defer sqlDB.Close()
			}

			in.ConfirmPassword = in.Password
			uc := auth.NewRegisterUserUsecase(
				gormrepo.NewUserGormRepository(gormDB),
				auth.NewBcryptPasswordHasher(auth.DefaultBcryptCost),
				realClock{},
			)
			out, err := uc.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", out.User.Email, out.User.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "admin email")
	f.StringVar(&in.Password, "password", "", "admin password")
	f.StringVar(&in.Username, "username", "admin", "display name")
	f.StringVar(&in.PhoneNumber, "phone", "", "phone number")
	f.StringVar(&in.Address, "address", "", "address")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}
