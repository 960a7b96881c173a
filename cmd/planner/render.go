package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ecoeats/mealplanner/internal/inventory"
	"github.com/ecoeats/mealplanner/internal/mealplan"
	"github.com/ecoeats/mealplanner/internal/planner"
	"github.com/ecoeats/mealplanner/internal/recipes"
	"github.com/ecoeats/mealplanner/pkg/enums"
	"github.com/ecoeats/mealplanner/pkg/types"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderWeek(w io.Writer, p *planner.Planner) {
	fmt.Fprintln(w, p.WeekLabel())
	plan := p.Plan()
	start := p.WeekStart()

	tw := newTable(w)
	header := []string{"DAY"}
	for _, slot := range enums.MealSlots {
		header = append(header, strings.ToUpper(slot.String()))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, day := range enums.Days {
		row := []string{formatDate(mealplan.DateForDay(start, day))}
		for _, slot := range enums.MealSlots {
			row = append(row, slotCell(plan.Meals.Get(day, slot), p.SyncState(day, slot)))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func slotCell(entry *types.MealEntry, state enums.SyncState) string {
	if entry == nil {
		return "-"
	}
	if state == enums.SyncStateUnsynced {
		return entry.Name + " (!)"
	}
	return entry.Name
}

// renderInventory lists items after reservations next to what the active
// week has planned from each.
func renderInventory(w io.Writer, statuses []inventory.ItemStatus, used map[string]types.Quantity) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No inventory items.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tUSED THIS WEEK\tCATEGORY\tSTORAGE\tEXPIRY\tSTATUS")
	for _, s := range statuses {
		usedCell := "-"
		if qty, ok := used[s.Item.ID]; ok && !qty.IsZero() {
			usedCell = qty.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Item.ID, s.Item.Name, s.Item.Quantity, usedCell, orDash(s.Item.Category),
			orDash(s.Item.Storage), orDash(s.Item.Expiry), s.Status)
	}
	_ = tw.Flush()
}

func renderMatches(w io.Writer, results []recipes.MatchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No recipes.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "RECIPE\tMATCH\tHAVE\tMISSING")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d%%\t%s\t%s\n", r.Name, r.Percent,
			orDash(strings.Join(r.Available, ", ")), orDash(strings.Join(r.Missing, ", ")))
	}
	_ = tw.Flush()
}

func renderTemplates(w io.Writer, list []types.Template) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No templates saved.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tMEALS\tCREATED")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.ID, t.Name, t.Meals.Count(), orDash(t.CreatedAt))
	}
	_ = tw.Flush()
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
