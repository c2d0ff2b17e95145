package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/planner"
	"github.com/nhle/planner/internal/ui/calendar"
	"github.com/nhle/planner/internal/view"
)

// resolveID expands an id prefix to the full id of exactly one item,
// templates included.
func (e *env) resolveID(prefix string) (string, error) {
	items, err := e.svc.List(e.ctx, e.coll, view.Options{Status: view.StatusAll})
	if err != nil {
		return "", userError(err)
	}
	templates, err := e.svc.Templates(e.ctx, e.coll)
	if err != nil {
		return "", userError(err)
	}

	var matches []string
	for _, it := range append(items, templates...) {
		if it.ID == prefix {
			return it.ID, nil
		}
		if strings.HasPrefix(it.ID, prefix) {
			matches = append(matches, it.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", userError(planner.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		status    string
		sortBy    string
		search    string
		tags      []string
		favorites bool
		templates bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			f, err := view.ParseStatus(status)
			if err != nil {
				return err
			}
			m, err := view.ParseSort(sortBy)
			if err != nil {
				return err
			}

			var items []model.Item
			if templates {
				items, err = e.svc.Templates(e.ctx, e.coll)
			} else {
				items, err = e.svc.List(e.ctx, e.coll, view.Options{Status: f, Sort: m, Search: search, Tags: tags})
			}
			if err != nil {
				return userError(err)
			}
			if favorites {
				items = view.FavoritesOnly(items)
			}

			renderItems(cmd.OutOrStdout(), items, time.Now(), e.svc.Evaluator())
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: all, active, completed, archive")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort: manual, az, alpha_desc, date_asc, date_desc, created_desc")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Search title and content")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Require tags")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "Only favorites")
	cmd.Flags().BoolVar(&templates, "templates", false, "List templates instead of items")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		content    string
		due        string
		recurrence string
		kind       string
		tags       []string
		link       string
		template   bool
		favorite   bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			it := model.Item{
				Collection: e.coll,
				Title:      strings.Join(args, " "),
				Content:    content,
				Recurrence: model.ParseRecurrence(recurrence),
				Metadata: model.Metadata{
					Kind:         model.Kind(kind),
					Tags:         tags,
					TaskMasterID: link,
					IsTemplate:   template,
					IsFavorite:   favorite,
				},
			}
			if due != "" {
				d, err := time.ParseInLocation(time.DateOnly, due, time.Local)
				if err != nil {
					return fmt.Errorf("parsing --due: %w", err)
				}
				it.DueDate = &d
			}

			created, err := e.svc.Create(e.ctx, it)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q in %s\n", shortID(created.ID), created.Title, created.Bucket)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Body text")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&recurrence, "recurrence", "r", "", "one_off, daily, weekly, monthly or quarterly")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Task-master kind: task, ticket, course, resource, idea, audition")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tags")
	cmd.Flags().StringVar(&link, "link", "", "Task-master item id to link a schedule item to")
	cmd.Flags().BoolVar(&template, "template", false, "Save as a template")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark as favorite")
	return cmd
}

// itemAction builds a command that runs fn on a single item id and prints
// the resulting item.
func itemAction(
	opts *rootOptions,
	use, short, verb string,
	fn func(e *env, cmd *cobra.Command, id string) (*model.Item, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := e.resolveID(args[0])
			if err != nil {
				return err
			}
			it, err := fn(e, cmd, id)
			if errors.Is(err, planner.ErrAlreadySatisfied) {
				fmt.Fprintln(cmd.OutOrStdout(), planner.ResultOf(err).Message)
				return nil
			}
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q (%s)\n", verb, shortID(it.ID), it.Title, it.Status)
			return nil
		},
	}
}

func newCompleteCmd(opts *rootOptions) *cobra.Command {
	var bonus bool
	cmd := itemAction(opts, "complete", "Complete an item for the current cycle", "Completed",
		func(e *env, _ *cobra.Command, id string) (*model.Item, error) {
			return e.svc.SmartComplete(e.ctx, e.coll, id, bonus)
		})
	cmd.Flags().BoolVarP(&bonus, "bonus", "b", false, "Log an extra completion even if the cycle is done")
	return cmd
}

func newUndoCmd(opts *rootOptions) *cobra.Command {
	return itemAction(opts, "undo", "Remove the latest completion", "Undid",
		func(e *env, _ *cobra.Command, id string) (*model.Item, error) {
			return e.svc.Undo(e.ctx, e.coll, id)
		})
}

func newArchiveCmd(opts *rootOptions) *cobra.Command {
	return itemAction(opts, "archive", "Archive an item", "Archived",
		func(e *env, _ *cobra.Command, id string) (*model.Item, error) {
			return e.svc.Archive(e.ctx, e.coll, id)
		})
}

func newVoidCmd(opts *rootOptions) *cobra.Command {
	return itemAction(opts, "void", "Void an item", "Voided",
		func(e *env, _ *cobra.Command, id string) (*model.Item, error) {
			return e.svc.Void(e.ctx, e.coll, id)
		})
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	return itemAction(opts, "restore", "Restore an archived or voided item", "Restored",
		func(e *env, _ *cobra.Command, id string) (*model.Item, error) {
			return e.svc.Restore(e.ctx, e.coll, id)
		})
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := e.resolveID(args[0])
			if err != nil {
				return err
			}
			if err := e.svc.Delete(e.ctx, e.coll, id); err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", shortID(id))
			return nil
		},
	}
}

func newReorderCmd(opts *rootOptions) *cobra.Command {
	var (
		before string
		offset int
	)

	cmd := &cobra.Command{
		Use:   "reorder <id>",
		Short: "Move an item within its bucket",
		Long: "Move an item onto another item's slot with --before, or by a number of\n" +
			"places with --offset (negative moves up).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if before == "" && offset == 0 {
				return errors.New("one of --before or --offset is required")
			}

			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := e.resolveID(args[0])
			if err != nil {
				return err
			}
			it, err := e.svc.Get(e.ctx, e.coll, id)
			if err != nil {
				return userError(err)
			}

			if before != "" {
				target, err := e.resolveID(before)
				if err != nil {
					return err
				}
				entries, err := e.svc.Reorder(e.ctx, e.coll, it.Bucket, id, target)
				if err != nil {
					return userError(err)
				}
				renderEntries(cmd.OutOrStdout(), entries)
				return nil
			}

			entries, err := e.svc.Move(e.ctx, e.coll, it.Bucket, id, offset)
			if err != nil {
				return userError(err)
			}
			renderEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Take this item's slot")
	cmd.Flags().IntVar(&offset, "offset", 0, "Move by this many places")
	return cmd
}

func newRenormalizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "renormalize <bucket>",
		Short: "Respace the positions of a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.svc.Renormalize(e.ctx, e.coll, args[0])
			if err != nil {
				return userError(err)
			}
			renderEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "calendar <id>",
		Short: "Show an item's completion calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			at := time.Now()
			if month != "" {
				at, err = time.ParseInLocation("2006-01", month, time.Local)
				if err != nil {
					return fmt.Errorf("parsing --month (want YYYY-MM): %w", err)
				}
			}

			id, err := e.resolveID(args[0])
			if err != nil {
				return err
			}
			it, err := e.svc.Get(e.ctx, e.coll, id)
			if err != nil {
				return userError(err)
			}
			cells, err := e.svc.Calendar(e.ctx, e.coll, id, at)
			if err != nil {
				return userError(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), calendar.View(it.Title, cells, e.svc.Evaluator().WeekStart))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month to show (YYYY-MM); defaults to the current month")
	return cmd
}
