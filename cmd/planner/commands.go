package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ecoeats/mealplanner/internal/journal"
	"github.com/ecoeats/mealplanner/internal/mealplan"
	"github.com/ecoeats/mealplanner/pkg/enums"
	"github.com/ecoeats/mealplanner/pkg/types"
)

var (
	errUsage     = errors.New("usage error")
	errQuit      = errors.New("quit")
	errSignedOut = errors.New("signed out")
)

type command struct {
	name    string
	args    string
	summary string
	// load is set for commands that need the active week fetched first.
	load bool
	run  func(ctx context.Context, a *app, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{name: "week", args: "[next|prev|current|YYYY-MM-DD]", summary: "show the active week", load: true, run: cmdWeek},
		{name: "inventory", summary: "list inventory after reservations", load: true, run: cmdInventory},
		{name: "suggest", summary: "recipes you can mostly make with what you have", load: true, run: cmdSuggest},
		{name: "generic", summary: "the generic recipe list with match scores", load: true, run: cmdGeneric},
		{name: "custom", args: "[list | add -name N ingredient,...]", summary: "your own recipes", load: true, run: cmdCustom},
		{name: "assign", args: "-day D -slot S -type T -name N [-use id=qty,...]", summary: "place a meal into a slot", load: true, run: cmdAssign},
		{name: "remove", args: "-day D -slot S", summary: "clear a slot", load: true, run: cmdRemove},
		{name: "copy", summary: "copy last week's plan into the active week", load: true, run: cmdCopy},
		{name: "template", args: "save NAME | list | apply ID | delete ID", summary: "manage week templates", load: true, run: cmdTemplate},
		{name: "sync", summary: "replay journaled plan writes", run: cmdSync},
		{name: "shell", summary: "interactive session", load: true, run: nil},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: planner [-week YYYY-MM-DD] <command> [args]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %-48s %s\n", c.name, c.args, c.summary)
	}
}

// dispatch runs one CLI invocation. "shell" reads further commands from in.
func (a *app) dispatch(ctx context.Context, argv []string, in io.Reader) error {
	global := flag.NewFlagSet("planner", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	week := global.String("week", "", "make the week containing this date active")
	if err := global.Parse(argv); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	rest := global.Args()
	if len(rest) == 0 {
		return fmt.Errorf("%w: no command given", errUsage)
	}
	cmd, ok := lookup(rest[0])
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
	}
	if !a.signedIn {
		return errSignedOut
	}

	if cmd.load {
		if err := a.load(ctx, *week); err != nil {
			return err
		}
	}
	if cmd.name == "shell" {
		return a.shell(ctx, in)
	}
	err := cmd.run(ctx, a, rest[1:])
	a.settle(ctx)
	return err
}

// load fetches everything for the requested week. Backend failures already
// fell back to something usable, so they are reported and not returned.
func (a *app) load(ctx context.Context, week string) error {
	var err error
	if strings.TrimSpace(week) == "" {
		err = a.planner.GotoWeek(ctx, a.now())
	} else {
		target, parseErr := mealplan.ParseWeekKey(week, a.loc)
		if parseErr != nil {
			return fmt.Errorf("%w: %v", errUsage, parseErr)
		}
		err = a.planner.GotoWeek(ctx, target)
	}
	if err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "loaded with fallbacks")
	}
	a.printNotices()
	return nil
}

// settle waits for background writes so their notices can be shown.
func (a *app) settle(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := a.planner.Flush(flushCtx); err != nil {
		a.logg.Warn(ctx, "plan writes still pending")
	}
	a.printNotices()
}

func (a *app) printNotices() {
	for _, n := range a.recorder.Drain() {
		fmt.Fprintf(a.out, "[%s] %s\n", n.Level, n.Message)
	}
}

func (a *app) shell(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(a.out, "Signed in as %s. Type \"help\" for commands.\n", a.session.Name())
	renderWeek(a.out, a.planner)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		fields := splitArgs(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		err := a.shellLine(ctx, fields)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
		a.settle(ctx)
	}
}

func (a *app) shellLine(ctx context.Context, fields []string) error {
	switch fields[0] {
	case "help":
		printUsage(a.out)
		fmt.Fprintln(a.out, "  logout                                                         end the session")
		fmt.Fprintln(a.out, "  quit                                                           leave the shell")
		return nil
	case "quit", "exit":
		return errQuit
	case "logout":
		a.planner.Logout(ctx)
		fmt.Fprintln(a.out, "Logged out.")
		return errQuit
	case "shell":
		return nil
	}
	cmd, ok := lookup(fields[0])
	if !ok {
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return cmd.run(ctx, a, fields[1:])
}

// splitArgs splits a shell line on spaces, keeping double-quoted runs together.
func splitArgs(line string) []string {
	var (
		out     []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case r == ' ' && !quoted:
			if started {
				out = append(out, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		out = append(out, current.String())
	}
	return out
}

func cmdWeek(ctx context.Context, a *app, args []string) error {
	if len(args) > 0 {
		var err error
		switch args[0] {
		case "next":
			err = a.planner.NextWeek(ctx)
		case "prev":
			err = a.planner.PrevWeek(ctx)
		case "current":
			err = a.planner.CurrentWeek(ctx)
		default:
			target, parseErr := mealplan.ParseWeekKey(args[0], a.loc)
			if parseErr != nil {
				return fmt.Errorf("%w: %v", errUsage, parseErr)
			}
			err = a.planner.GotoWeek(ctx, target)
		}
		if err != nil {
			a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "loaded with fallbacks")
		}
		a.printNotices()
	}
	renderWeek(a.out, a.planner)
	return nil
}

func cmdInventory(_ context.Context, a *app, _ []string) error {
	renderInventory(a.out, a.planner.InventoryStatuses(), mealplan.WeeklyUsage(a.planner.Plan()))
	return nil
}

func cmdSuggest(_ context.Context, a *app, _ []string) error {
	renderMatches(a.out, a.planner.Suggestions())
	return nil
}

func cmdGeneric(_ context.Context, a *app, _ []string) error {
	renderMatches(a.out, a.planner.GenericRecipes())
	return nil
}

func cmdCustom(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		renderMatches(a.out, a.planner.CustomRecipes())
		return nil
	}
	if args[0] != "add" {
		return fmt.Errorf("%w: unknown custom action %q", errUsage, args[0])
	}
	fs := newFlagSet("custom add")
	name := fs.String("name", "", "recipe name")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	ingredients := strings.Split(strings.Join(fs.Args(), " "), ",")
	recipe, err := a.planner.CreateCustomRecipe(ctx, *name, ingredients)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved recipe %s (%s)\n", recipe.Name, strings.Join(recipe.Keywords(), ", "))
	return nil
}

type slotFlags struct {
	day  string
	slot string
}

func (s *slotFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.day, "day", "", "monday..sunday")
	fs.StringVar(&s.slot, "slot", "", "breakfast, lunch, dinner or snacks")
}

func (s slotFlags) parse() (enums.Day, enums.MealSlot, error) {
	day, err := enums.ParseDay(s.day)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errUsage, err)
	}
	slot, err := enums.ParseMealSlot(s.slot)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errUsage, err)
	}
	return day, slot, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func cmdAssign(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("assign")
	var where slotFlags
	where.register(fs)
	mealType := fs.String("type", string(enums.MealTypeRecipe), "recipe, generic or custom")
	name := fs.String("name", "", "meal name")
	use := fs.String("use", "", "comma separated id=qty usages; recipes default to one of each matched item")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	day, slot, err := where.parse()
	if err != nil {
		return err
	}
	kind, err := enums.ParseMealType(*mealType)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	mealName := strings.TrimSpace(strings.Join(append([]string{*name}, fs.Args()...), " "))

	usages, err := parseUsages(*use)
	if err != nil {
		return err
	}
	if usages == nil && kind != enums.MealTypeCustom {
		if proposed, err := a.planner.ProposeUsage(mealName); err == nil {
			usages = proposed
		}
	}

	entry, err := a.planner.Assign(ctx, day, slot, types.MealData{
		Name:        mealName,
		Type:        kind,
		Ingredients: usages,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s: %s%s\n", day, slot, entry.Name, describeUsages(entry.Ingredients))
	return nil
}

// parseUsages reads "a4=2,a1=0.5". An empty string yields nil.
func parseUsages(raw string) ([]types.IngredientUsage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []types.IngredientUsage
	for _, part := range strings.Split(raw, ",") {
		id, qty, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: usage %q must look like id=qty", errUsage, part)
		}
		quantity, err := types.ParseQuantity(qty)
		if err != nil {
			return nil, fmt.Errorf("%w: usage %q: %v", errUsage, part, err)
		}
		out = append(out, types.IngredientUsage{ID: strings.TrimSpace(id), UsedQty: quantity})
	}
	return out, nil
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("remove")
	var where slotFlags
	where.register(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	day, slot, err := where.parse()
	if err != nil {
		return err
	}
	removed, err := a.planner.Remove(ctx, day, slot)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(a.out, "%s %s is already empty\n", day, slot)
	}
	return nil
}

func cmdCopy(ctx context.Context, a *app, _ []string) error {
	if _, err := a.planner.CopyPreviousWeek(ctx); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "copy fell back to an empty week")
	}
	a.printNotices()
	renderWeek(a.out, a.planner)
	return nil
}

func cmdTemplate(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: template needs save, list, apply or delete", errUsage)
	}
	switch args[0] {
	case "save":
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		id, err := a.planner.SaveTemplate(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "saved template %s\n", id)
		return nil
	case "list":
		list, err := a.planner.ListTemplates(ctx)
		if err != nil {
			return err
		}
		renderTemplates(a.out, list)
		return nil
	case "apply":
		fs := newFlagSet("template apply")
		week := fs.String("week", "", "target week, defaults to the active one")
		if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 1 {
			return fmt.Errorf("%w: template apply [-week YYYY-MM-DD] ID", errUsage)
		}
		target := a.planner.WeekStart()
		if *week != "" {
			parsed, err := mealplan.ParseWeekKey(*week, a.loc)
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			target = parsed
		}
		if _, err := a.planner.ApplyTemplate(ctx, fs.Arg(0), target); err != nil {
			return err
		}
		renderWeek(a.out, a.planner)
		return nil
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("%w: template delete ID", errUsage)
		}
		return a.planner.DeleteTemplate(ctx, args[1])
	default:
		return fmt.Errorf("%w: unknown template action %q", errUsage, args[0])
	}
}

func cmdSync(ctx context.Context, a *app, _ []string) error {
	if a.journal == nil {
		fmt.Fprintln(a.out, "journal disabled, nothing to replay")
		return nil
	}
	replayer := journal.Replayer{
		Repo:    a.journal,
		Writer:  a.client,
		Metrics: a.metrics,
		Logger:  a.logg,
	}
	report, err := replayer.Replay(ctx, a.session.UserID)
	fmt.Fprintf(a.out, "replayed %d, failed %d\n", report.Replayed, report.Failed)
	return err
}

func describeUsages(usages []types.IngredientUsage) string {
	if len(usages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(usages))
	for _, u := range usages {
		label := u.Name
		if label == "" {
			label = u.ID
		}
		parts = append(parts, fmt.Sprintf("%s x%s", label, u.UsedQty))
	}
	return " (uses " + strings.Join(parts, ", ") + ")"
}

func formatDate(t time.Time) string {
	return t.Format("Mon Jan 2")
}
