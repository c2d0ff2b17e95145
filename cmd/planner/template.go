package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nhle/planner/internal/model"
)

// templateFile is the YAML layout accepted by "template import".
//
//	templates:
//	  - title: Morning routine
//	    recurrence: daily
//	    tags: [health]
//	    sub_actions: [stretch, journal]
type templateFile struct {
	Templates []templateEntry `yaml:"templates"`
}

type templateEntry struct {
	Title      string   `yaml:"title"`
	Content    string   `yaml:"content"`
	Recurrence string   `yaml:"recurrence"`
	Kind       string   `yaml:"kind"`
	Tags       []string `yaml:"tags"`
	SubActions []string `yaml:"sub_actions"`
}

// parseTemplates decodes a template file into template items of coll.
func parseTemplates(r io.Reader, coll model.Collection) ([]model.Item, error) {
	var f templateFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}

	items := make([]model.Item, 0, len(f.Templates))
	for i, t := range f.Templates {
		if t.Title == "" {
			return nil, fmt.Errorf("template %d: title is required", i+1)
		}
		it := model.Item{
			Collection: coll,
			Title:      t.Title,
			Content:    t.Content,
			Recurrence: model.ParseRecurrence(t.Recurrence),
			Metadata: model.Metadata{
				Kind:       model.Kind(t.Kind),
				Tags:       t.Tags,
				IsTemplate: true,
			},
		}
		for _, text := range t.SubActions {
			it.Metadata.SubActions = append(it.Metadata.SubActions, model.SubAction{Text: text})
		}
		items = append(items, it)
	}
	return items, nil
}

func newTemplateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage templates",
	}
	cmd.AddCommand(newTemplateLoadCmd(opts), newTemplateImportCmd(opts))
	return cmd
}

func newTemplateLoadCmd(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "load [id...]",
		Short: "Copy templates into items due on a date",
		Long:  "Copy the given templates, or every template when none are given, into\nregular items due on --date.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			at := time.Now()
			if date != "" {
				at, err = time.ParseInLocation(time.DateOnly, date, time.Local)
				if err != nil {
					return fmt.Errorf("parsing --date: %w", err)
				}
			}

			ids := make([]string, 0, len(args))
			for _, a := range args {
				id, err := e.resolveID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			items, err := e.svc.LoadTemplate(e.ctx, e.coll, ids, at)
			if err != nil {
				return userError(err)
			}
			renderItems(cmd.OutOrStdout(), items, time.Now(), e.svc.Evaluator())
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Due date for the copies (YYYY-MM-DD); defaults to today")
	return cmd
}

func newTemplateImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create templates from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			items, err := parseTemplates(f, e.coll)
			if err != nil {
				return err
			}
			for _, it := range items {
				if _, err := e.svc.Create(e.ctx, it); err != nil {
					return userError(err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d templates\n", len(items))
			return nil
		},
	}
}
