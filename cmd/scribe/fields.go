package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/fields"
)

var fieldsCategory string

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the field types that can be generated",
	RunE:  runFields,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	fieldsCmd.Flags().StringVar(&fieldsCategory, "category", "", "only this category (audit, risk, policy, ...)")
}

func runFields(cmd *cobra.Command, args []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}

	list := fields.All()
	if fieldsCategory != "" {
		list = fields.InCategory(fields.Category(fieldsCategory))
		if len(list) == 0 {
			return cli.NewConfigError("category", fmt.Sprintf("unknown category %q", fieldsCategory))
		}
	}

	table := &cli.Table{Headers: []string{"FIELD TYPE", "CATEGORY", "SHAPE"}}
	for _, ft := range list {
		shape := "text"
		if ft.IsList() {
			shape = "list"
		}
		table.Append(string(ft), string(ft.Category()), shape)
	}
	return f.FormatTo(cmd.OutOrStdout(), table)
}
