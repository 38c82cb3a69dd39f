package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hintaro/hintaro/internal/analysis"
	"github.com/hintaro/hintaro/internal/share"
)

// --- analyses command ---

var analysesLimit int

var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "Inspect stored analyses",
}

var analysesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := newService(db).Recent(analysesLimit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No analyses stored yet. POST one to /api/analyses after 'hintaro serve'.")
			return nil
		}

		for _, a := range items {
			stamp := "-"
			if a.Record.ViralCard != nil && a.Record.ViralCard.Stamp != "" {
				stamp = a.Record.ViralCard.Stamp
			}
			fmt.Printf("  %s  %-5s  %-12s  %s\n", a.ID, a.Tier, stamp, a.CreatedAt)
		}
		return nil
	},
}

var analysesShowFormat string

var analysesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show the share view of an analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := share.ParseFormat(analysesShowFormat)
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		v, err := newService(db).Card(args[0], format)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), v)
	},
}

var analysesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an analysis and its saved replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := newService(db).Delete(args[0]); err != nil {
			if errors.Is(err, analysis.ErrNotFound) {
				return fmt.Errorf("analysis %s not found", args[0])
			}
			return err
		}
		fmt.Printf("Deleted analysis %s\n", args[0])
		return nil
	},
}

func init() {
	analysesListCmd.Flags().IntVarP(&analysesLimit, "limit", "n", 20, "Number of analyses to list")
	analysesShowCmd.Flags().StringVarP(&analysesShowFormat, "format", "f", "story", "Card format (story, square)")

	analysesCmd.AddCommand(analysesListCmd)
	analysesCmd.AddCommand(analysesShowCmd)
	analysesCmd.AddCommand(analysesDeleteCmd)
}

// --- replies command ---

var (
	repliesSearch   string
	replyType       string
	replyAnalysisID string
)

var repliesCmd = &cobra.Command{
	Use:   "replies",
	Short: "Manage saved replies",
}

var repliesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved replies",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetSavedReplies(repliesSearch)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No saved replies. Add one with: hintaro replies add")
			return nil
		}

		for _, r := range items {
			text := r.ReplyText
			if runes := []rune(text); len(runes) > 60 {
				text = string(runes[:60]) + "..."
			}
			kind := ""
			if r.ReplyType != nil {
				kind = " (" + *r.ReplyType + ")"
			}
			fmt.Printf("  [%d]%s %s\n", r.ID, kind, text)
		}
		return nil
	},
}

var repliesAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Save a reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var analysisID, kind *string
		if replyAnalysisID != "" {
			analysisID = &replyAnalysisID
		}
		if replyType != "" {
			kind = &replyType
		}

		id, err := db.InsertSavedReply(analysisID, args[0], kind)
		if err != nil {
			return fmt.Errorf("saving reply: %w", err)
		}
		fmt.Printf("Saved reply [%d]\n", id)
		return nil
	},
}

var repliesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a saved reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid reply ID: %s", args[0])
		}

		reply, err := db.GetSavedReply(id)
		if err != nil {
			return err
		}
		if reply == nil {
			return fmt.Errorf("reply %d not found", id)
		}

		if err := db.DeleteSavedReply(id); err != nil {
			return err
		}
		fmt.Printf("Removed reply [%d]\n", id)
		return nil
	},
}

func init() {
	repliesListCmd.Flags().StringVarP(&repliesSearch, "search", "s", "", "Only show replies containing this text")
	repliesAddCmd.Flags().StringVar(&replyType, "type", "", "Reply type (playful, direct, ...)")
	repliesAddCmd.Flags().StringVar(&replyAnalysisID, "analysis", "", "Analysis the reply belongs to")

	repliesCmd.AddCommand(repliesListCmd)
	repliesCmd.AddCommand(repliesAddCmd)
	repliesCmd.AddCommand(repliesRemoveCmd)
}
