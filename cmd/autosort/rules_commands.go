package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"autosort/internal/ipc"
	"autosort/internal/rules"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage sorting rules",
	}

	var listJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List rules, highest priority first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RulesList()
				if err != nil {
					return err
				}
				sorted := rules.ByPriority(resp.Rules)
				if listJSON {
					return writeJSON(cmd, sorted)
				}
				renderRules(cmd, sorted)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	var addFlags ruleFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := rules.Rule{Enabled: true}
			if err := addFlags.apply(cmd.Flags(), &r); err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RuleAdd(r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added rule %q (%s)\n", resp.Rule.Name, shortID(resp.Rule.ID))
				return nil
			})
		},
	}
	addFlags.register(addCmd.Flags())

	var updateFlags ruleFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a rule; conditions given replace the old ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				list, err := client.RulesList()
				if err != nil {
					return err
				}
				r, err := findRule(list.Rules, args[0])
				if err != nil {
					return err
				}
				if err := updateFlags.apply(cmd.Flags(), &r); err != nil {
					return err
				}
				resp, err := client.RuleUpdate(r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated rule %q\n", resp.Rule.Name)
				return nil
			})
		},
	}
	updateFlags.register(updateCmd.Flags())

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				list, err := client.RulesList()
				if err != nil {
					return err
				}
				r, err := findRule(list.Rules, args[0])
				if err != nil {
					return err
				}
				if _, err := client.RuleDelete(r.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %q\n", r.Name)
				return nil
			})
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Rank rules: the first id gets the highest priority",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				list, err := client.RulesList()
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					r, err := findRule(list.Rules, arg)
					if err != nil {
						return err
					}
					ids = append(ids, r.ID)
				}
				resp, err := client.RulesReorder(ids)
				if err != nil {
					return err
				}
				renderRules(cmd, rules.ByPriority(resp.Rules))
				return nil
			})
		},
	}

	testCmd := &cobra.Command{
		Use:   "test <file name>",
		Short: "Show where a file with this name would be moved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RulesTest(args[0], nil)
				if err != nil {
					return err
				}
				if !resp.Matched {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: no rule matches; it would stay put\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], resp.DestinationFolder)
				return nil
			})
		},
	}

	rulesCmd.AddCommand(listCmd, addCmd, updateCmd, deleteCmd, reorderCmd, testCmd)
	return rulesCmd
}

// ruleFlags are shared by add and update. On update only flags the user set
// are applied.
type ruleFlags struct {
	name        string
	destination string
	priority    int
	disabled    bool
	extensions  []string
	contains    string
	regex       string
	largerThan  string
	smallerThan string
}

var conditionFlagNames = []string{"ext", "contains", "regex", "larger-than", "smaller-than"}

func (f *ruleFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Rule name")
	fs.StringVar(&f.destination, "dest", "", "Destination folder, relative to the destination root")
	fs.IntVar(&f.priority, "priority", 0, "Priority; higher wins")
	fs.BoolVar(&f.disabled, "disabled", false, "Keep the rule but never match with it")
	fs.StringSliceVar(&f.extensions, "ext", nil, "Match these extensions (repeat or comma-separate)")
	fs.StringVar(&f.contains, "contains", "", "Match names containing this text (case-insensitive)")
	fs.StringVar(&f.regex, "regex", "", "Match names against this regular expression")
	fs.StringVar(&f.largerThan, "larger-than", "", "Match files larger than this size (e.g. 100MB)")
	fs.StringVar(&f.smallerThan, "smaller-than", "", "Match files smaller than this size (e.g. 1KiB)")
}

func (f *ruleFlags) apply(fs *pflag.FlagSet, r *rules.Rule) error {
	if fs.Changed("name") {
		r.Name = f.name
	}
	if fs.Changed("dest") {
		r.DestinationFolder = f.destination
	}
	if fs.Changed("priority") {
		r.Priority = f.priority
	}
	if fs.Changed("disabled") {
		r.Enabled = !f.disabled
	}

	touched := false
	for _, name := range conditionFlagNames {
		if fs.Changed(name) {
			touched = true
		}
	}
	if !touched {
		return nil
	}
	conds := rules.Conditions{}
	if len(f.extensions) > 0 {
		conds = append(conds, rules.Extension(f.extensions))
	}
	if f.contains != "" {
		conds = append(conds, rules.NameContains(f.contains))
	}
	if f.regex != "" {
		conds = append(conds, rules.NameRegex(f.regex))
	}
	if f.largerThan != "" {
		n, err := humanize.ParseBytes(f.largerThan)
		if err != nil {
			return fmt.Errorf("--larger-than: %w", err)
		}
		conds = append(conds, rules.SizeGreaterThan(int64(n)))
	}
	if f.smallerThan != "" {
		n, err := humanize.ParseBytes(f.smallerThan)
		if err != nil {
			return fmt.Errorf("--smaller-than: %w", err)
		}
		conds = append(conds, rules.SizeLessThan(int64(n)))
	}
	r.Conditions = conds
	return nil
}

// findRule resolves an id prefix or, failing that, an exact rule name.
func findRule(list []rules.Rule, ref string) (rules.Rule, error) {
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	id, err := resolveID("rule", ref, ids)
	if err != nil {
		for _, r := range list {
			if strings.EqualFold(r.Name, strings.TrimSpace(ref)) {
				return r, nil
			}
		}
		return rules.Rule{}, err
	}
	for _, r := range list {
		if r.ID == id {
			return r, nil
		}
	}
	return rules.Rule{}, fmt.Errorf("no rule matches id %q", ref)
}

func renderRules(cmd *cobra.Command, list []rules.Rule) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No rules configured")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{
			shortID(r.ID),
			r.Name,
			strconv.Itoa(r.Priority),
			yesNo(r.Enabled),
			describeConditions(r.Conditions),
			r.DestinationFolder,
			yesNo(r.IsDefault),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "Name", "Priority", "Enabled", "Conditions", "Destination", "Built-in"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

func describeConditions(conds rules.Conditions) string {
	if len(conds) == 0 {
		return "(none; never matches)"
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		switch v := c.(type) {
		case rules.Extension:
			parts = append(parts, "ext "+strings.Join(v, ","))
		case rules.NameContains:
			parts = append(parts, fmt.Sprintf("name contains %q", string(v)))
		case rules.NameRegex:
			parts = append(parts, fmt.Sprintf("name =~ /%s/", string(v)))
		case rules.SizeGreaterThan:
			parts = append(parts, "> "+humanize.IBytes(uint64(v)))
		case rules.SizeLessThan:
			parts = append(parts, "< "+humanize.IBytes(uint64(v)))
		}
	}
	return strings.Join(parts, " and ")
}
