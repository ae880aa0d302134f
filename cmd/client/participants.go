package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var participantsCmd = &cobra.Command{
	Use:   "participants",
	Short: "Work with participant records",
}

var participantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List participants",
	RunE:  runParticipantsList,
}

var participantsShowCmd = &cobra.Command{
	Use:   "show [pid]",
	Short: "Show one participant as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runParticipantsShow,
}

var (
	participantsSearch  string
	participantsPage    int
	participantsPerPage int
)

func init() {
	participantsListCmd.Flags().StringVar(&participantsSearch, "search", "", "Filter by name substring")
	participantsListCmd.Flags().IntVar(&participantsPage, "page", 1, "Page number")
	participantsListCmd.Flags().IntVar(&participantsPerPage, "per-page", 25, "Results per page")

	participantsCmd.AddCommand(participantsListCmd)
	participantsCmd.AddCommand(participantsShowCmd)
}

func runParticipantsList(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	page, err := c.ListParticipants(cmd.Context(), participantsSearch, participantsPage, participantsPerPage)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME\tCOUNTRY\tPHONE")
	for _, p := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.PID, p.Name, p.RepresentingCountry, p.Phone)
	}
	w.Flush()

	fmt.Printf("\nPage %d of %d (%d participants)\n", page.Page, page.Pages, page.Total)
	return nil
}

func runParticipantsShow(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	p, err := c.GetParticipant(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
