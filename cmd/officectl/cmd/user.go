package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/recruitment-office/internal/app"
	"github.com/spec-kit/recruitment-office/internal/service"
)

func newUserCommand(flags *globalFlags) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	userCmd.AddCommand(newUserCreateCommand(flags), newUserResetPasswordCommand(flags), newUserActivateCommand(flags))
	return userCmd
}

func newUserCreateCommand(flags *globalFlags) *cobra.Command {
	var name, email, password, title string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an active staff account",
		Example: `  officectl user create --name "Office Manager" --email manager@office.test \
    --password 'changeme1' --job-title Administrator`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				jobTitle, err := c.Repos.JobTitles.GetByName(ctx, title)
				if err != nil {
					return fmt.Errorf("job title %q: %w", title, err)
				}
				user, err := c.Users.CreateUser(ctx, service.CreateUserInput{
					Name:       name,
					Email:      email,
					Password:   password,
					JobTitleID: jobTitle.ID,
					Active:     true,
				})
				if err != nil {
					return err
				}
				cmd.Printf("created user %s (%s) as %s\n", user.Email, user.ID, jobTitle.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&title, "job-title", "Administrator", "job title name")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserResetPasswordCommand(flags *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				user, err := c.Users.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				if err := c.Users.SetPassword(ctx, user.ID, password); err != nil {
					return err
				}
				cmd.Printf("password updated for %s\n", user.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserActivateCommand(flags *globalFlags) *cobra.Command {
	var email string
	var deactivate bool
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Activate (or with --deactivate, disable) an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				user, err := c.Users.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				user, err = c.Users.SetActive(ctx, user.ID, !deactivate)
				if err != nil {
					return err
				}
				state := "active"
				if !user.Active {
					state = "inactive"
				}
				cmd.Printf("%s is now %s\n", user.Email, state)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&deactivate, "deactivate", false, "disable the account instead")
	return cmd
}
