package history

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"xfollowers/pkg/classify"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/kv"
	"xfollowers/pkg/models"
)

// OverridesKey holds the JSON object of username -> category
const OverridesKey = "category_overrides"

// Overrides persists manual category assignments. Edits are
// read-modify-write, last write wins.
type Overrides struct {
	kv kv.Store
}

// NewOverrides returns an Overrides over backend
func NewOverrides(backend kv.Store) *Overrides {
	return &Overrides{kv: backend}
}

// All returns every stored override. Entries with an unknown category are
// dropped. Missing or corrupt data yields an empty map.
func (o *Overrides) All(ctx context.Context) (classify.Overrides, error) {
	all, _, warn := o.load(ctx)
	return all, warn
}

// load reads the overrides. unreadable reports a backend failure, as
// opposed to a missing key or undecodable data.
func (o *Overrides) load(ctx context.Context) (all classify.Overrides, unreadable bool, warn error) {
	data, err := o.kv.Get(ctx, OverridesKey)
	if stderrors.Is(err, kv.ErrNotFound) {
		return classify.Overrides{}, false, nil
	}
	if err != nil {
		return classify.Overrides{}, true, errors.Storage("load overrides", err)
	}

	var raw map[string]models.Category
	if err := json.Unmarshal(data, &raw); err != nil {
		return classify.Overrides{}, false, errors.Storage("decode overrides", err)
	}

	all = make(classify.Overrides, len(raw))
	for username, cat := range raw {
		if username != "" && cat.Valid() {
			all[username] = cat
		}
	}
	return all, false, nil
}

// Get returns the override for username, if any
func (o *Overrides) Get(ctx context.Context, username string) (models.Category, bool, error) {
	all, warn := o.All(ctx)
	cat, ok := all[username]
	return cat, ok, warn
}

// Set stores category for username. When category equals computed, the
// entry is removed instead so no override ever pins the computed value.
// Invalid input is reported as an invalid_input error and nothing is
// written; storage failures are warnings. Nothing is written when the
// stored overrides cannot be read.
func (o *Overrides) Set(ctx context.Context, username string, category, computed models.Category) error {
	if username == "" {
		return errors.InvalidInput("override requires a username")
	}
	if !category.Valid() {
		return errors.InvalidInput(fmt.Sprintf("unknown category %q", category))
	}

	all, unreadable, warn := o.load(ctx)
	if unreadable {
		return warn
	}
	if category == computed {
		if _, ok := all[username]; !ok {
			return nil
		}
		delete(all, username)
	} else {
		all[username] = category
	}
	return o.save(ctx, all)
}

// Clear removes the override for username. Nothing is written when the
// stored overrides cannot be read.
func (o *Overrides) Clear(ctx context.Context, username string) error {
	all, unreadable, warn := o.load(ctx)
	if unreadable {
		return warn
	}
	if _, ok := all[username]; !ok {
		return nil
	}
	delete(all, username)
	return o.save(ctx, all)
}

func (o *Overrides) save(ctx context.Context, all classify.Overrides) error {
	if len(all) == 0 {
		if err := o.kv.Delete(ctx, OverridesKey); err != nil {
			return errors.Storage("save overrides", err)
		}
		return nil
	}

	data, err := json.Marshal(all)
	if err != nil {
		return errors.Storage("encode overrides", err)
	}
	if err := o.kv.Set(ctx, OverridesKey, data); err != nil {
		return errors.Storage("save overrides", err)
	}
	return nil
}
