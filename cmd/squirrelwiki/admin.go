package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"squirrelwiki/internal/models"
	"squirrelwiki/internal/page"
	"squirrelwiki/internal/render"
)

func adminCommand() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}
	admin.AddCommand(createUserCommand(), pluginCommand(), reindexCommand(), importCommand())
	return admin
}

func createUserCommand() *cobra.Command {
	var displayName, email, role string
	cmd := &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}

			var roles []string
			if role != "" {
				roles = []string{role}
			}
			user, err := app.authService.RegisterUser(args[0], displayName, email, args[1], roles)
			if err != nil {
				return err
			}
			fmt.Printf("created user %s (id %d) with roles %s\n", user.Username, user.ID, strings.Join(user.Roles, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "role to grant (admin, editor, reader)")
	return cmd
}

func pluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage plugins",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plugins and their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			plugins, err := app.plugins.List()
			if err != nil {
				return err
			}
			for _, p := range plugins {
				fmt.Printf("%-16s %-8s %-12s %s\n", p.Name, p.Kind, p.State, p.Description)
			}
			return nil
		},
	})

	for _, action := range []string{"install", "enable", "disable"} {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action + " <name>",
			Short: strings.ToUpper(action[:1]) + action[1:] + " a plugin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := newApplication(cmd.Context())
				if err != nil {
					return err
				}
				switch action {
				case "install":
					err = app.plugins.Install(cmd.Context(), args[0], "cli")
				case "enable":
					err = app.plugins.Enable(cmd.Context(), args[0], "cli")
				case "disable":
					err = app.plugins.Disable(cmd.Context(), args[0], "cli")
				}
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", action, args[0])
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "configure <name> <key>=<value>",
		Short: "Set a plugin setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value, ok := strings.Cut(args[1], "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", args[1])
			}
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.plugins.Configure(cmd.Context(), args[0], key, value, "cli"); err != nil {
				return err
			}
			fmt.Printf("configured %s: %s\n", args[0], key)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "audit <name>",
		Short: "Show a plugin's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := app.plugins.AuditLog(args[0], 0)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s %-10s %-12s %s\n", e.OccurredAt.Format("2006-01-02 15:04:05"), e.Actor, e.Action, e.Detail)
			}
			return nil
		},
	})

	return cmd
}

func reindexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from every published page",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			indexed, err := app.search.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d pages with %s\n", indexed, app.search.ActiveName())
			return nil
		},
	}
}

func importCommand() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import markdown and org files as published pages",
		Long: `Import walks a directory and creates one page per .md or .org file.
YAML front matter may set title, slug, format, and tags; the file name
fills in whatever is missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			user, err := app.authRepo.FindUserByUsername(author)
			if err != nil {
				return fmt.Errorf("author %q not found", author)
			}

			imported := 0
			err = filepath.WalkDir(args[0], func(path string, d os.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				ext := strings.ToLower(filepath.Ext(path))
				if ext != ".md" && ext != ".org" {
					return nil
				}

				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				fm, body, err := render.ParseFrontmatter(string(raw))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				title := fm.Title
				if title == "" {
					title = strings.TrimSuffix(d.Name(), ext)
				}
				format := fm.Format
				if format == "" && ext == ".org" {
					format = models.FormatOrg
				}

				created, err := app.pages.Create(cmd.Context(), page.CreateInput{
					Slug:      fm.Slug,
					Title:     title,
					Format:    format,
					Body:      body,
					Published: true,
					AuthorID:  user.ID,
				})
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if len(fm.Tags) > 0 {
					if _, err := app.tags.SetPageTags(cmd.Context(), created.ID, fm.Tags); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
				}
				imported++
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Printf("imported %d pages\n", imported)
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "username recorded as the author")
	cmd.MarkFlagRequired("author")
	return cmd
}
