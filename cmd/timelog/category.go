package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"timelog/internal/core"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage categories",
	}
	cmd.AddCommand(newCategoryAddCmd(a))
	cmd.AddCommand(newCategoryListCmd(a))
	cmd.AddCommand(newCategoryRmCmd(a))
	return cmd
}

func newCategoryAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.rt.Service.AddCategory(a.context(cmd), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %d\n", id)
			return nil
		},
	}
}

func newCategoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List categories by name",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := a.rt.Service.GetCategories(a.context(cmd))
			if err != nil {
				return err
			}
			sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })

			out := cmd.OutOrStdout()
			if len(cats) == 0 {
				fmt.Fprintln(out, "No categories.")
				return nil
			}
			for _, c := range cats {
				fmt.Fprintf(out, "%d\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}

func newCategoryRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id|name>",
		Short: "Delete a category and uncategorize its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(cmd)
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				id, err = a.lookupCategory(cmd, args[0])
				if err != nil {
					return err
				}
			}
			if err := a.rt.Service.DeleteCategory(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
			return nil
		},
	}
}

func (a *app) lookupCategory(cmd *cobra.Command, name string) (int64, error) {
	cats, err := a.rt.Service.GetCategories(a.context(cmd))
	if err != nil {
		return 0, err
	}
	for _, c := range cats {
		if c.Name == name {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("category %q: %w", name, core.ErrNotFound)
}
