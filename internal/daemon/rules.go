package daemon

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"autosort/internal/logging"
	"autosort/internal/rules"
	"autosort/internal/services"
)

// Rules returns the configured rules in stored order.
func (d *Daemon) Rules() []rules.Rule {
	d.rulesMu.Lock()
	defer d.rulesMu.Unlock()
	return rules.CloneAll(d.rules)
}

// AddRule validates and appends a user rule. A blank ID is filled in.
func (d *Daemon) AddRule(ctx context.Context, r rules.Rule) (rules.Rule, error) {
	r = tidyRule(r)
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.IsDefault = false
	if err := r.Validate(); err != nil {
		return rules.Rule{}, services.Wrap(services.ErrConfiguration, "rules", "add", r.Name, err)
	}

	d.rulesMu.Lock()
	defer d.rulesMu.Unlock()
	if indexOfRule(d.rules, r.ID) >= 0 {
		return rules.Rule{}, services.Wrap(services.ErrConfiguration, "rules", "add", "duplicate rule id "+r.ID, nil)
	}
	next := append(rules.CloneAll(d.rules), r.Clone())
	if err := d.commitRulesLocked(ctx, next); err != nil {
		return rules.Rule{}, err
	}
	d.logger.Info("rule added",
		logging.String(logging.FieldRule, r.Name),
		logging.String("rule_id", r.ID),
		logging.String(logging.FieldEventType, "rule_added"),
	)
	return r, nil
}

// UpdateRule replaces the rule with the same ID. Whether it is a built-in
// rule is kept from the stored copy.
func (d *Daemon) UpdateRule(ctx context.Context, r rules.Rule) (rules.Rule, error) {
	r = tidyRule(r)
	if err := r.Validate(); err != nil {
		return rules.Rule{}, services.Wrap(services.ErrConfiguration, "rules", "update", r.Name, err)
	}

	d.rulesMu.Lock()
	defer d.rulesMu.Unlock()
	idx := indexOfRule(d.rules, r.ID)
	if idx < 0 {
		return rules.Rule{}, services.Wrap(services.ErrNotFound, "rules", "update", "no rule with id "+r.ID, nil)
	}
	r.IsDefault = d.rules[idx].IsDefault
	next := rules.CloneAll(d.rules)
	next[idx] = r.Clone()
	if err := d.commitRulesLocked(ctx, next); err != nil {
		return rules.Rule{}, err
	}
	d.logger.Info("rule updated",
		logging.String(logging.FieldRule, r.Name),
		logging.String("rule_id", r.ID),
		logging.String(logging.FieldEventType, "rule_updated"),
	)
	return r, nil
}

// DeleteRule removes a rule. Built-in rules may be deleted too.
func (d *Daemon) DeleteRule(ctx context.Context, id string) error {
	d.rulesMu.Lock()
	defer d.rulesMu.Unlock()
	idx := indexOfRule(d.rules, id)
	if idx < 0 {
		return services.Wrap(services.ErrNotFound, "rules", "delete", "no rule with id "+id, nil)
	}
	removed := d.rules[idx]
	next := slices.Delete(rules.CloneAll(d.rules), idx, idx+1)
	if err := d.commitRulesLocked(ctx, next); err != nil {
		return err
	}
	d.logger.Info("rule deleted",
		logging.String(logging.FieldRule, removed.Name),
		logging.String("rule_id", id),
		logging.String(logging.FieldEventType, "rule_deleted"),
	)
	return nil
}

// ReorderRules gives the listed rules descending priorities in list order.
func (d *Daemon) ReorderRules(ctx context.Context, ids []string) ([]rules.Rule, error) {
	d.rulesMu.Lock()
	defer d.rulesMu.Unlock()
	next := rules.Reorder(d.rules, ids)
	if err := d.commitRulesLocked(ctx, next); err != nil {
		return nil, err
	}
	return rules.CloneAll(next), nil
}

// TestRule reports where a file with this name would go. When candidates is
// empty the configured rules are used.
func (d *Daemon) TestRule(name string, candidates []rules.Rule) (string, bool) {
	if len(candidates) == 0 {
		candidates = d.Rules()
	}
	return rules.Test(name, candidates)
}

func (d *Daemon) commitRulesLocked(ctx context.Context, next []rules.Rule) error {
	if err := d.store.ReplaceRules(ctx, next); err != nil {
		return err
	}
	d.rules = next
	d.wf.UpdateRules(next)
	return nil
}

func tidyRule(r rules.Rule) rules.Rule {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.DestinationFolder = strings.TrimSpace(r.DestinationFolder)
	return r
}

func indexOfRule(list []rules.Rule, id string) int {
	return slices.IndexFunc(list, func(r rules.Rule) bool { return r.ID == id })
}
