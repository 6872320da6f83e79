package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"campustube/pkg/client"
)

func newSignUpCommand(e *env) *cobra.Command {
	var p client.SignUpParams
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.api.SignUp(cmd.Context(), p)
			if err != nil {
				return err
			}
			if err := e.session.Save(s); err != nil {
				return err
			}
			fmt.Fprintln(e.out, okStyle.Render("Account created, you are signed in."))
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Email, "email", "", "email address")
	cmd.Flags().StringVar(&p.Password, "password", "", "password (min 6 characters)")
	cmd.Flags().StringVar(&p.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&p.MatriculeID, "matricule", "", "student matricule id")
	for _, f := range []string{"email", "password", "matricule"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newLoginCommand(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.api.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := e.session.Save(s); err != nil {
				return err
			}
			fmt.Fprintln(e.out, okStyle.Render("Signed in."))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.SignOut(cmd.Context()); err != nil {
				return err
			}
			return e.session.Clear()
		},
	}
}

func newFeedCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Show the trending feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := e.app.Home(cmd.Context())
			if err != nil {
				return err
			}
			renderPage(e.out, page, "No videos yet. Be the first to upload!", false)
			return nil
		},
	}
}

func newExploreCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "explore <query>",
		Short: "Search videos by title or description",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			page, err := e.app.Explore(cmd.Context(), query)
			if err != nil {
				return err
			}
			empty := "Enter a search query to find videos"
			if strings.TrimSpace(query) != "" {
				empty = "No videos found. Try a different search."
			}
			renderPage(e.out, page, empty, false)
			return nil
		},
	}
}

func newProfileCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := e.app.Profile(cmd.Context())
			if err != nil {
				return err
			}
			renderProfile(e.out, page)
			renderPage(e.out, page, "You haven't uploaded any videos yet.", true)
			return nil
		},
	}
}

func newLikeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "like <video-id>",
		Short: "Like a video, or unlike it if already liked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			video, err := e.api.Video(ctx, args[0])
			if err != nil {
				return err
			}
			userID, err := e.api.GetUser(ctx)
			if err != nil {
				return err
			}
			liked, ok := e.app.RefreshLikes(ctx)
			if userID != "" && !ok {
				return fmt.Errorf("could not load your likes, try again")
			}

			btn := client.NewLikeButton(e.api, termNotifier{w: e.errOut}, video.ID, userID, liked[video.ID], video.LikesCount)
			if err := btn.Toggle(ctx); err != nil {
				return err
			}
			on, count := btn.State()
			fmt.Fprintf(e.out, "%s %d  %s\n", heart(on), count, titleStyle.Render(video.Title))
			return nil
		},
	}
}

func newUploadCommand(e *env) *cobra.Command {
	var title, description, tags string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a video of at most 60 seconds and 20MB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			form := e.app.Upload(e.prober)
			if err := form.SelectFile(ctx, args[0]); err != nil {
				return err
			}
			form.Title = title
			form.Description = description
			form.Tags = tags

			video, err := form.Submit(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, renderCard(*video, false, true))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "video title (max 100 characters)")
	cmd.Flags().StringVar(&description, "description", "", "video description (max 500 characters)")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
