package cmd

import (
	"errors"
	"fmt"
	"net/mail"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/coursecast/coursecast/api"
	"github.com/coursecast/coursecast/auth"
	"github.com/coursecast/coursecast/color"
	"github.com/coursecast/coursecast/icon"
	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func validateEmail(v any) error {
	s, _ := v.(string)
	if _, err := mail.ParseAddress(s); err != nil {
		return errors.New("not a valid email address")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("email", "e", "", "Account email")
	loginCmd.Flags().Bool("password-stdin", false, "Read the password from standard input")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the API token in the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		creds := api.Credentials{Email: lo.Must(cmd.Flags().GetString("email"))}

		if creds.Email == "" {
			handleErr(survey.AskOne(&survey.Input{Message: "Email"}, &creds.Email, survey.WithValidator(validateEmail)))
		} else {
			handleErr(validateEmail(creds.Email))
		}

		if lo.Must(cmd.Flags().GetBool("password-stdin")) {
			_, err := fmt.Fscanln(os.Stdin, &creds.Password)
			handleErr(err)
		} else {
			handleErr(survey.AskOne(&survey.Password{Message: "Password"}, &creds.Password, survey.WithValidator(survey.Required)))
		}

		token, user, err := api.FromConfig().Login(commandContext(cmd), creds)
		if api.IsKind(err, api.Unauthorized) || api.IsKind(err, api.Invalid) {
			handleErr(errors.New("wrong email or password"))
		}
		handleErr(err)
		handleErr(auth.SetToken(token))

		name := creds.Email
		if user != nil && user.Name != "" {
			name = user.Name
		}
		fmt.Printf("%s logged in as %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Purple)(name))
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the API token and remove it from the keyring",
	Run: func(cmd *cobra.Command, args []string) {
		token, err := auth.GetToken()
		handleErr(err)

		if token != "" {
			// the local token goes either way
			if err := api.FromConfig().Logout(commandContext(cmd), token); err != nil {
				log.Warnf("revoke token: %v", err)
			}
		}

		handleErr(auth.DeleteToken())
		fmt.Printf("%s logged out\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account the stored token belongs to",
	Run: func(cmd *cobra.Command, args []string) {
		user, err := api.FromConfig().Me(commandContext(cmd), requireToken())
		handleErr(err)

		fmt.Printf("%s %s\n", style.Bold(user.Name), style.Faint("<"+user.Email+">"))
		if user.Role != "" {
			fmt.Printf("%s %s\n", style.Faint("role"), user.Role)
		}
	},
}
