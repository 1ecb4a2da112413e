package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/HendryAvila/thoughtbox/internal/config"
	"github.com/HendryAvila/thoughtbox/internal/snapshot"
	"github.com/spf13/cobra"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		productID string
		mode      string
		sinceDays int
		linked    bool
		out       string
		preview   bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON export archive",
		Long: `Export entities to a JSON archive and record the export.

Defaults for mode, window and linked context come from the workspace
settings. Without --out the archive goes to <workspace>/exports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.store.LoadSettings()
			if err != nil {
				return err
			}
			o := snapshot.Overrides{OutputPath: out}
			if cmd.Flags().Changed("mode") {
				m := config.ExportMode(mode)
				o.Mode = &m
			}
			if cmd.Flags().Changed("since-days") {
				o.SinceDays = &sinceDays
			}
			if cmd.Flags().Changed("linked") {
				o.IncludeLinked = &linked
			}
			req, err := snapshot.BuildRequest(st, productID, time.Now(), o)
			if err != nil {
				return err
			}

			if preview {
				p, err := a.engine.Preview(req)
				if err != nil {
					return err
				}
				return writeJSON(cmd, p)
			}
			rec, err := a.engine.Execute(req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entities to %s\n", rec.Total, rec.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&productID, "product", "p", "", "Product id (default: every product)")
	cmd.Flags().StringVar(&mode, "mode", "", "Export mode: full or incremental")
	cmd.Flags().IntVar(&sinceDays, "since-days", 0, "Incremental window in days")
	cmd.Flags().BoolVar(&linked, "linked", false, "Embed linked entities")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Archive file path")
	cmd.Flags().BoolVar(&preview, "preview", false, "Show what would be exported without writing")
	return cmd
}

func newSnapshotCmd(g *globalFlags) *cobra.Command {
	var productID string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print a Markdown snapshot of a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if productID == "" {
				st, err := a.store.LoadSettings()
				if err != nil {
					return err
				}
				productID = st.LastProductID
			}
			if productID == "" {
				return fmt.Errorf("no product given and no last product to fall back to")
			}
			text, err := a.engine.CopySnapshot(productID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVarP(&productID, "product", "p", "", "Product id (default: the last opened product)")
	return cmd
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var (
		limit int
		clear bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or clear past exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if clear {
				n, err := a.store.ClearExportRecords()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d export records\n", n)
				return nil
			}
			recs, err := a.store.ListExportRecords(limit)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %-11s %4d  %s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Scope, r.Mode, r.Total, r.OutputPath)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the export history")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
