package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jengzang/geolife-backend-go/internal/ingest"
	"github.com/jengzang/geolife-backend-go/internal/models"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func printUserTotals(items []models.UserTotal, column string) {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{strconv.FormatInt(it.UserID, 10), fmt.Sprintf("%.2f", it.Total)})
	}
	printTable([]string{"user_id", column}, rows)
}

func printUserCounts(items []models.UserCount, column string) {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{strconv.FormatInt(it.UserID, 10), strconv.Itoa(it.Count)})
	}
	printTable([]string{"user_id", column}, rows)
}

func printUserIDs(ids []int64) {
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{strconv.FormatInt(id, 10)})
	}
	printTable([]string{"user_id"}, rows)
}

func printReport(r *ingest.Report) {
	rows := [][2]string{
		{"users", strconv.Itoa(r.Users)},
		{"activities", strconv.Itoa(r.Activities)},
		{"track_points", strconv.Itoa(r.TrackPoints)},
		{"failed_users", strconv.Itoa(len(r.Failed))},
	}

	reasons := make([]string, 0, len(r.Discarded))
	for reason := range r.Discarded {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		rows = append(rows, [2]string{"discarded_" + reason, strconv.Itoa(r.Discarded[ingest.DiscardReason(reason)])})
	}
	printKV(rows)
	printFailures(r)
}

func printFailures(r *ingest.Report) {
	for _, f := range r.Failed {
		fmt.Fprintln(os.Stderr, "failed:", f.Error())
	}
}
